// Package tui implementa el listado de la comunidad en la terminal: scroll
// infinito sobre un viewport y búsqueda con debounce.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dropDatabas3/hostboard/internal/community"
	"github.com/dropDatabas3/hostboard/internal/domain/repository"
	"github.com/dropDatabas3/hostboard/internal/pager"
	"github.com/dropDatabas3/hostboard/internal/scroll"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

// header (título + input) y footer ocupan una línea cada uno.
const chromeLines = 3

// changedMsg avisa que la vista del listing cambió.
type changedMsg struct{}

// Browse es el tea.Model del listado. Un item ocupa una línea del viewport y
// el sentinel es la línea siguiente al último item visible.
type Browse struct {
	ctx     context.Context
	title   string
	listing *community.Listing[repository.Question]
	obs     *scroll.GeometryObserver
	notify  chan struct{}

	input textinput.Model
	vp    viewport.Model
	ready bool
	view  community.View[repository.Question]
}

// NewBrowse crea el modelo. Hay que llamar Mount antes de correr el programa.
func NewBrowse(ctx context.Context, title string, fetch pager.Fetcher[repository.Question], cfg community.ListingConfig) *Browse {
	obs := &scroll.GeometryObserver{}
	b := &Browse{
		ctx:    ctx,
		title:  title,
		obs:    obs,
		notify: make(chan struct{}, 1),
	}
	b.listing = community.NewListing(fetch, obs, func(q repository.Question) []string { return q.SearchFields() }, cfg)
	b.listing.OnChange(func(community.View[repository.Question]) {
		// coalescer: Update siempre relee la vista completa
		select {
		case b.notify <- struct{}{}:
		default:
		}
	})

	in := textinput.New()
	in.Placeholder = "buscar en lo cargado"
	in.Prompt = "/ "
	in.Focus()
	b.input = in
	return b
}

// Mount siembra la primera página.
func (b *Browse) Mount(seed pager.Page[repository.Question]) error {
	if err := b.listing.Mount(b.ctx, seed); err != nil {
		return err
	}
	b.view = b.listing.View()
	return nil
}

// Close desmonta el listing y espera los fetch en vuelo.
func (b *Browse) Close() { b.listing.Close() }

func (b *Browse) waitChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.notify:
			return changedMsg{}
		case <-b.ctx.Done():
			return nil
		}
	}
}

// Init implementa tea.Model.
func (b *Browse) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, b.waitChange())
}

// Update implementa tea.Model.
func (b *Browse) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - chromeLines
		if h < 1 {
			h = 1
		}
		if !b.ready {
			b.vp = viewport.New(msg.Width, h)
			b.ready = true
		} else {
			b.vp.Width = msg.Width
			b.vp.Height = h
		}
		b.input.Width = msg.Width - len(b.input.Prompt) - 1
		b.refresh()
		return b, nil

	case changedMsg:
		b.refresh()
		return b, b.waitChange()

	case tea.MouseMsg:
		var cmd tea.Cmd
		b.vp, cmd = b.vp.Update(msg)
		b.reportGeometry()
		return b, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return b, tea.Quit
		case "up", "down", "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			b.vp, cmd = b.vp.Update(msg)
			b.reportGeometry()
			return b, cmd
		case "ctrl+r":
			return b, b.retry()
		}
		prev := b.input.Value()
		var cmd tea.Cmd
		b.input, cmd = b.input.Update(msg)
		if v := b.input.Value(); v != prev {
			b.listing.Search(v)
		}
		return b, cmd
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

func (b *Browse) retry() tea.Cmd {
	return func() tea.Msg {
		_ = b.listing.LoadMore(b.ctx)
		return nil
	}
}

func (b *Browse) refresh() {
	b.view = b.listing.View()
	if !b.ready {
		return
	}
	b.vp.SetContent(b.renderItems())
	b.reportGeometry()
}

func (b *Browse) reportGeometry() {
	if !b.ready {
		return
	}
	b.obs.Update(b.vp.YOffset, b.vp.Height, len(b.view.Items))
}

func (b *Browse) renderItems() string {
	line := lipgloss.NewStyle().MaxWidth(b.vp.Width)
	var sb strings.Builder
	for _, q := range b.view.Items {
		s := q.Title
		if len(q.Tags) > 0 {
			s += " " + tagStyle.Render("#"+strings.Join(q.Tags, " #"))
		}
		sb.WriteString(line.Render(s))
		sb.WriteByte('\n')
	}

	switch v := b.view; {
	case v.Loading:
		sb.WriteString(dimStyle.Render("cargando…"))
	case v.Err != nil:
		sb.WriteString(errStyle.Render("no se pudo cargar más (ctrl+r reintenta)"))
	case !v.HasMore:
		sb.WriteString(dimStyle.Render("fin de la lista"))
	case len(v.Items) == 0 && v.Query != "":
		sb.WriteString(dimStyle.Render("sin resultados en lo cargado"))
	}
	return sb.String()
}

// View implementa tea.Model.
func (b *Browse) View() string {
	if !b.ready {
		return "iniciando…"
	}
	header := titleStyle.Render(b.title) + " " +
		dimStyle.Render(fmt.Sprintf("%d de %d cargadas", len(b.view.Items), b.view.Loaded))
	footer := dimStyle.Render("↑/↓ pgup/pgdown desplazar · ctrl+r reintentar · esc salir")
	return lipgloss.JoinVertical(lipgloss.Left, header, b.input.View(), b.vp.View(), footer)
}
