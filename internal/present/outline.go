package present

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/slideboard/internal/model"
)

type element struct {
	Type      string  `json:"type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
	IsDeleted bool    `json:"isDeleted"`
}

// Outline describes a slide as lines of text for a terminal: the text
// elements top to bottom, then a count of the other shapes.
func Outline(s model.Slide) []string {
	switch p := s.Payload.(type) {
	case model.ExcalidrawPayload:
		return excalidrawOutline(p)
	case model.TldrawPayload:
		if len(p.Snapshot) == 0 {
			return []string{"(empty tldraw slide)"}
		}
		return []string{fmt.Sprintf("(tldraw drawing, %d bytes)", len(p.Snapshot))}
	default:
		return nil
	}
}

func excalidrawOutline(p model.ExcalidrawPayload) []string {
	var texts []element
	shapes := map[string]int{}
	for _, raw := range p.Elements {
		var el element
		if err := json.Unmarshal(raw, &el); err != nil || el.IsDeleted {
			continue
		}
		if el.Type == "text" {
			texts = append(texts, el)
			continue
		}
		shapes[el.Type]++
	}
	if len(texts) == 0 && len(shapes) == 0 {
		return []string{"(empty slide)"}
	}

	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y < texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	out := make([]string, 0, len(texts)+1)
	for _, t := range texts {
		out = append(out, t.Text)
	}
	if len(shapes) > 0 {
		kinds := make([]string, 0, len(shapes))
		for k := range shapes {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = fmt.Sprintf("%d %s", shapes[k], k)
		}
		out = append(out, "["+strings.Join(parts, ", ")+"]")
	}
	return out
}
