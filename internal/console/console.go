// Package console holds the setup shared by the example programs.
package console

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/llms"

	"github.com/graphflow/graphflow/config"
	"github.com/graphflow/graphflow/graph"
	"github.com/graphflow/graphflow/llms/fallback"
	"github.com/graphflow/graphflow/llms/providers"
	"github.com/graphflow/graphflow/log"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("#7D56F4")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
)

// Heading prints title as a section heading.
func Heading(title string) {
	fmt.Println(headingStyle.Render(title))
}

// Field prints a labelled value.
func Field(label string, value any) {
	fmt.Printf("%s %v\n", labelStyle.Render(label+":"), value)
}

// Setup loads the configuration and builds a logger at its level. It exits
// the program when the configuration is invalid.
func Setup() (*config.Config, *log.GologLogger) {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		Fatal(err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		Fatal(err)
	}
	logger := log.NewDefaultLogger(level)
	log.SetDefaultLogger(logger)
	return cfg, logger
}

// Model returns a chat model that falls back across every configured
// provider.
func Model(cfg *config.Config, logger log.Logger) llms.Model {
	chain, err := providers.Chain(cfg)
	if err != nil {
		Fatal(err)
	}
	return fallback.New(chain, fallback.WithLogger(logger))
}

// Diagram prints the mermaid diagram of g.
func Diagram(g *graph.Graph) {
	Heading("Mermaid diagram")
	fmt.Println(graph.NewExporter(g).DrawMermaid())
}

// Fatal prints err and exits.
func Fatal(err error) {
	log.Error("%v", err)
	os.Exit(1)
}
