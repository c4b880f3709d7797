package pages

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed content.toml
var contentTOML string

type Hazard string

const (
	HazardNone   = Hazard("none")
	HazardLow    = Hazard("low")
	HazardMedium = Hazard("medium")
	HazardHigh   = Hazard("high")
)

// Badge is the label shown next to a chemical: "Safe" for none, otherwise
// the capitalised level followed by "Risk".
func (h Hazard) Badge() string {
	if h == HazardNone {
		return "Safe"
	}
	if h == "" {
		return HazardLow.Badge()
	}
	s := string(h)
	return strings.ToUpper(s[:1]) + s[1:] + " Risk"
}

type Feature struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Path        string `toml:"path"`
}

type Member struct {
	Name string `toml:"name"`
	Role string `toml:"role"`
}

func (m Member) Initial() string {
	for _, r := range m.Name {
		return string(r)
	}
	return ""
}

type HomeContent struct {
	Badge    string    `toml:"badge"`
	Title    string    `toml:"title"`
	Subtitle string    `toml:"subtitle"`
	Tagline  string    `toml:"tagline"`
	About    []string  `toml:"about"`
	Features []Feature `toml:"features"`
	Team     []Member  `toml:"team"`
	Footer   string    `toml:"footer"`
}

type Chemical struct {
	Name    string `toml:"name"`
	Formula string `toml:"formula"`
	Purpose string `toml:"purpose"`
	Safety  string `toml:"safety"`
	Hazard  Hazard `toml:"hazard"`
}

type LegendEntry struct {
	Hazard Hazard `toml:"hazard"`
	Label  string `toml:"label"`
}

type ChemicalsContent struct {
	Intro      string        `toml:"intro"`
	SafetyNote string        `toml:"safety_note"`
	Items      []Chemical    `toml:"items"`
	Legend     []LegendEntry `toml:"legend"`
}

type Step struct {
	Number      int      `toml:"number"`
	Title       string   `toml:"title"`
	Duration    string   `toml:"duration"`
	Description string   `toml:"description"`
	Details     []string `toml:"details"`
}

type ProcedureContent struct {
	Intro         string   `toml:"intro"`
	Safety        []string `toml:"safety"`
	Steps         []Step   `toml:"steps"`
	TotalTime     string   `toml:"total_time"`
	TotalTimeNote string   `toml:"total_time_note"`
}

type Stage struct {
	Number      int    `toml:"number"`
	Title       string `toml:"title"`
	Subtitle    string `toml:"subtitle"`
	Description string `toml:"description"`
	Formula     string `toml:"formula"`
}

type Concept struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type ProcessContent struct {
	Intro    string    `toml:"intro"`
	Stages   []Stage   `toml:"stages"`
	Concepts []Concept `toml:"concepts"`
}

type MediaItem struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Src         string `toml:"src"`
}

type MediaContent struct {
	Intro     string      `toml:"intro"`
	Video     MediaItem   `toml:"video"`
	Gallery   []MediaItem `toml:"gallery"`
	TeamPhoto MediaItem   `toml:"team_photo"`
}

type FAQEntry struct {
	Question string `toml:"question"`
	Answer   string `toml:"answer"`
}

type FAQContent struct {
	Intro   string     `toml:"intro"`
	Outro   string     `toml:"outro"`
	Entries []FAQEntry `toml:"entries"`
}

type Content struct {
	Home      HomeContent      `toml:"home"`
	Chemicals ChemicalsContent `toml:"chemicals"`
	Procedure ProcedureContent `toml:"procedure"`
	Process   ProcessContent   `toml:"process"`
	Media     MediaContent     `toml:"media"`
	FAQ       FAQContent       `toml:"faq"`
}

// LoadContent decodes the embedded content records.
func LoadContent() (*Content, error) {
	var c Content
	meta, err := toml.Decode(contentTOML, &c)
	if err != nil {
		return nil, fmt.Errorf("decode page content failed: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown page content keys: %v", undecoded)
	}
	return &c, nil
}
