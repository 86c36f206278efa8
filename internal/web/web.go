// Package web serves the question pages, the candidate fragments and the
// websocket search channel.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/auth"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/i18n"
	"github.com/ziadkadry99/soassoc/internal/markup"
	"github.com/ziadkadry99/soassoc/internal/suggested"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// Config configures a Web.
type Config struct {
	// BaseURL is the public URL of the server. Websocket connections are
	// accepted from its origin and from the origin of the request host.
	BaseURL string
}

// Web renders the HTML front end.
type Web struct {
	ctrl       *controller.Controller
	suggested  *suggested.Store
	loc        *i18n.Localizer
	tmpl       *template.Template
	chromaCSS  []byte
	originHost string
	upgrader   websocket.Upgrader
	log        *log.Logger
}

// New creates a Web. suggestedStore and logger may be nil.
func New(ctrl *controller.Controller, suggestedStore *suggested.Store, cfg Config, logger *log.Logger) (*Web, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	loc := ctrl.Localizer()

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"t":    loc.T,
		"th":   loc.HTML,
		"lang": loc.Locale,
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	var css bytes.Buffer
	if err := markup.WriteCSS(&css); err != nil {
		return nil, err
	}

	w := &Web{
		ctrl:      ctrl,
		suggested: suggestedStore,
		loc:       loc,
		tmpl:      tmpl,
		chromaCSS: css.Bytes(),
		log:       logger,
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		w.originHost = u.Host
	}
	w.upgrader = websocket.Upgrader{CheckOrigin: w.checkOrigin}
	return w, nil
}

// RegisterRoutes mounts the pages and static assets.
func (w *Web) RegisterRoutes(r chi.Router) {
	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/static/chroma.css", w.handleChromaCSS)
	r.Get("/no-way", w.handleNoWay)
	r.Get("/help", w.handleHelp)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage)
		r.Get("/", w.handleIndex)
		r.Get("/index.html", w.handleIndex)
		r.Get("/questions/{id}", w.handleQuestion)
		r.Get("/questions/{id}/candidates", w.handleCandidates)
	})
}

// RegisterStreamRoutes mounts the websocket endpoint. It is kept apart from
// RegisterRoutes so the server can mount it outside its request timeout.
func (w *Web) RegisterStreamRoutes(r chi.Router) {
	r.With(auth.RequireAPI).Get("/ws/questions/{id}", w.handleWebSocket)
}

type layoutData struct {
	Title string
	User  *auth.User
}

type indexData struct {
	layoutData
	Pagination *suggested.Pagination
}

type questionData struct {
	layoutData
	QuestionID int
	Page       controller.Page
	Views      int
	HasViews   bool
	Failure    template.HTML
	Results    controller.Results
}

type textData struct {
	layoutData
	Body template.HTML
}

func (w *Web) layout(r *http.Request, title string) layoutData {
	u, _ := auth.UserFromContext(r.Context())
	return layoutData{Title: title, User: u}
}

func (w *Web) handleIndex(rw http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	data := indexData{layoutData: w.layout(r, w.loc.T("index_title"))}
	if w.suggested != nil {
		p, err := w.suggested.List(r.Context(), page, suggested.DefaultPerPage)
		if err != nil {
			w.log.WithError(err).Error("listing suggested questions")
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Pagination = p
	}
	w.render(rw, http.StatusOK, "index", data)
}

func (w *Web) handleQuestion(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(rw, "invalid question id", http.StatusBadRequest)
		return
	}

	data := questionData{layoutData: w.layout(r, w.loc.T("title")), QuestionID: id}
	if w.suggested != nil {
		views, ok, err := w.suggested.Views(r.Context(), id)
		if err != nil {
			w.log.WithError(err).WithField("question_id", id).Warn("loading views")
		}
		data.Views, data.HasViews = views, ok
	}

	sess := w.ctrl.NewSession(id)
	if err := sess.Init(r.Context()); err != nil {
		status, msg := w.failure(id, err)
		data.Failure = msg
		w.render(rw, status, "question", data)
		return
	}
	data.Page, _ = sess.Page()
	data.Title = data.Page.Title
	w.render(rw, http.StatusOK, "question", data)
}

func (w *Web) handleCandidates(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(rw, "invalid question id", http.StatusBadRequest)
		return
	}

	sess, res, err := w.ctrl.Lookup(r.Context(), id, r.URL.Query().Get("q"))
	if sess.State() != controller.Ready {
		status, msg := w.failure(id, sess.Err())
		w.render(rw, status, "message", msg)
		return
	}
	if err != nil {
		w.log.WithError(err).WithField("question_id", id).Warn("candidate search failed")
	}
	w.render(rw, http.StatusOK, "candidates", res)
}

func (w *Web) handleNoWay(rw http.ResponseWriter, r *http.Request) {
	w.render(rw, http.StatusOK, "text", textData{
		layoutData: w.layout(r, w.loc.T("title")),
		Body:       w.loc.HTML("no_way"),
	})
}

func (w *Web) handleHelp(rw http.ResponseWriter, r *http.Request) {
	body, err := w.loc.Help()
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	w.render(rw, http.StatusOK, "text", textData{
		layoutData: w.layout(r, w.loc.T("help")),
		Body:       body,
	})
}

func (w *Web) handleChromaCSS(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/css; charset=utf-8")
	rw.Write(w.chromaCSS)
}

// failure maps a question load error to a status and a visible message.
func (w *Web) failure(id int, err error) (int, template.HTML) {
	if errors.Is(err, controller.ErrNoQuestion) {
		return http.StatusNotFound, w.loc.HTML(i18n.QuestionNotFound, id)
	}
	return http.StatusBadGateway, w.loc.HTML(i18n.LoadFailed, id)
}

// RenderResults renders a results region as an HTML fragment.
func (w *Web) RenderResults(res controller.Results) (string, error) {
	var buf bytes.Buffer
	if err := w.tmpl.ExecuteTemplate(&buf, "candidates", res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (w *Web) render(rw http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := w.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		w.log.WithError(err).WithField("template", name).Error("rendering template")
		http.Error(rw, "rendering failed", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	buf.WriteTo(rw)
}
