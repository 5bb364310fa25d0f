package html_sink

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"prompt_evolver/entities"

	"go.uber.org/zap"
)

var pageTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Prompt Evolution</title>
<style>
body { font-family: sans-serif; background: #111; color: #eee; }
#results { display: flex; flex-wrap: wrap; gap: 1rem; }
.card { width: 320px; background: #222; border-radius: 8px; overflow: hidden; }
.card-header { padding: .5rem 1rem; font-weight: bold; }
.card-image { position: relative; min-height: 320px; }
.card-image img { width: 100%; opacity: 0; transition: opacity .3s; }
.card-image img.loaded { opacity: 1; }
.img-spinner { position: absolute; top: 45%; left: 45%; width: 32px; height: 32px; border: 4px solid #444; border-top-color: #eee; border-radius: 50%; animation: spin 1s linear infinite; }
.error { color: #f66; }
@keyframes spin { to { transform: rotate(360deg); } }
</style>
</head>
<body>
{{- if .Failure}}
<p class="error">{{.Failure}}</p>
{{- end}}
<div id="results">
{{- range .Cards}}
<div class="card">
    <div class="card-header">{{.Title}}</div>
    <div class="card-image">
        <div class="img-spinner"></div>
        <img
            src="{{.Image.URL}}"
            alt="AI generated image for step {{.Step}}"
            loading="lazy"
            onload="this.classList.add('loaded'); this.previousElementSibling.style.display='none';"
            onerror="this.style.display='none'; this.previousElementSibling.style.display='none';"
        >
    </div>
    <div class="card-body">
        <p>{{.Body}}</p>
    </div>
</div>
{{- end}}
</div>
</body>
</html>
`))

type card struct {
	*entities.RenderUnit
	Step int
	// Body is the unit text, escaped by the renderer before it got here.
	Body template.HTML
}

type page struct {
	Cards   []card
	Failure string
}

// Sink keeps a gallery page on disk in step with the render. The file is
// rewritten after every change. The browser fetches the images itself.
type Sink struct {
	path   string
	logger *zap.SugaredLogger

	mu      sync.Mutex
	units   map[int]*entities.RenderUnit
	failure string
}

type Config struct {
	Path   string
	Logger *zap.SugaredLogger
}

func New(cfg Config) (*Sink, error) {
	if cfg.Path == "" {
		return nil, errors.New("missing gallery path")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Sink{
		path:   cfg.Path,
		logger: cfg.Logger,
		units:  map[int]*entities.RenderUnit{},
	}, nil
}

func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.units = map[int]*entities.RenderUnit{}
	s.failure = ""

	return s.write()
}

func (s *Sink) Insert(ctx context.Context, unit *entities.RenderUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.units[unit.Index] = unit

	return s.write()
}

func (s *Sink) ReportFailure(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failure = message

	return s.write()
}

func (s *Sink) write() error {
	p := page{Failure: s.failure}

	for _, unit := range s.units {
		p.Cards = append(p.Cards, card{
			RenderUnit: unit,
			Step:       unit.Index + 1,
			Body:       template.HTML(unit.Text),
		})
	}

	sort.Slice(p.Cards, func(i, j int) bool { return p.Cards[i].Index < p.Cards[j].Index })

	buf := new(bytes.Buffer)

	err := pageTemplate.Execute(buf, p)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".gallery-*.html")
	if err != nil {
		return err
	}

	_, err = tmp.Write(buf.Bytes())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmp.Name())

		return err
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		os.Remove(tmp.Name())

		return err
	}

	s.logger.Debugf("Gallery %s updated with %d cards", s.path, len(p.Cards))

	return nil
}
