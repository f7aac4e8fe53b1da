package seed

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"aperture/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

const defaultPassword = "password123"

// Factory builds realistic inputs for the services.
type Factory struct {
	faker    *gofakeit.Faker
	password string
}

// NewFactory returns a Factory. A zero seed picks a random one.
func NewFactory(seed int64, password string) *Factory {
	if password == "" {
		password = defaultPassword
	}
	return &Factory{faker: gofakeit.New(seed), password: password}
}

// RegisterInput returns a unique registration for the n-th seeded account.
func (f *Factory) RegisterInput(n int) service.RegisterInput {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := usernameFor(first, last, n)
	return service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: f.password,
		FullName: first + " " + last,
	}
}

func usernameFor(first, last string, n int) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(first + "." + last) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	base := sb.String()
	suffix := fmt.Sprintf("_%d", n)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

// Bio is a short profile line.
func (f *Factory) Bio() string {
	return fmt.Sprintf("%s lover from %s", strings.ToLower(f.faker.Hobby()), f.faker.City())
}

// PostInput returns a caption, location and tags for a new post.
func (f *Factory) PostInput(userID uint, img []byte) service.CreatePostInput {
	tags := make([]string, 0, 3)
	for i := f.faker.Number(0, 3); i > 0; i-- {
		tags = append(tags, strings.ToLower(f.faker.Noun()))
	}
	return service.CreatePostInput{
		UserID:      userID,
		Image:       img,
		ContentType: "image/png",
		Caption:     f.faker.Sentence(f.faker.Number(3, 12)),
		Location:    f.faker.City() + ", " + f.faker.Country(),
		Tags:        strings.Join(tags, ","),
	}
}

// CommentText is a short reaction.
func (f *Factory) CommentText() string {
	return f.faker.Sentence(f.faker.Number(2, 8))
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64() < p
}

// Pick returns an index in [0, n).
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}

// Image renders a two-color diagonal gradient PNG.
func (f *Factory) Image(w, h int) ([]byte, error) {
	from := f.color()
	to := f.color()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := float64(x+y) / float64(w+h)
			img.Set(x, y, color.RGBA{
				R: lerp(from.R, to.R, t),
				G: lerp(from.G, to.G, t),
				B: lerp(from.B, to.B, t),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Factory) color() color.RGBA {
	return color.RGBA{
		R: uint8(f.faker.Number(0, 255)),
		G: uint8(f.faker.Number(0, 255)),
		B: uint8(f.faker.Number(0, 255)),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
