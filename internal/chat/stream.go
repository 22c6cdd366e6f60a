package chat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ParseStream reads server-sent events from r. Each `data:` line carries a
// JSON chunk whose first choice delta is appended to the reply. The [DONE]
// marker, comment lines and undecodable chunks are skipped.
func ParseStream(r io.Reader, onChunk func(string)) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)

	var full strings.Builder
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)
		if data == doneMarker {
			continue
		}

		var c chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			continue
		}
		if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
			continue
		}
		content := c.Choices[0].Delta.Content
		full.WriteString(content)
		if onChunk != nil {
			onChunk(content)
		}
	}
	if err := sc.Err(); err != nil {
		return full.String(), fmt.Errorf("read chat stream: %w", err)
	}
	return full.String(), nil
}
