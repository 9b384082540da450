// Package page renders the carousel screen. The first paint embeds the
// gallery directly; the inline script then polls the JSON endpoint and
// rotates slides on its own timer.
package page

import (
	"context"
	_ "embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

//go:embed carousel.html
var carouselHTML string

var carouselTemplate = template.Must(template.New("carousel").Parse(carouselHTML))

// View is the data behind one render.
type View struct {
	Title    string
	Term     string
	Images   []types.DisplayImage
	Endpoint string
	// Refresh is how often the page re-fetches Endpoint; Advance how long
	// each slide stays up.
	Refresh time.Duration
	Advance time.Duration
}

type viewData struct {
	View
	RefreshMillis int64
	AdvanceMillis int64
	First         *types.DisplayImage
}

// Carousel returns the full page component.
func Carousel(v View) templ.Component {
	if v.Images == nil {
		v.Images = []types.DisplayImage{}
	}
	data := viewData{
		View:          v,
		RefreshMillis: v.Refresh.Milliseconds(),
		AdvanceMillis: v.Advance.Milliseconds(),
	}
	if len(v.Images) > 0 {
		data.First = &v.Images[0]
	}

	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return carouselTemplate.Execute(w, data)
	})
}
