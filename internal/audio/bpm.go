// ABOUTME: Authored-tempo extraction from loop filenames
// ABOUTME: Recognizes names like "groove_84bpm.wav" or "break 174 BPM.flac"
package audio

import (
	"regexp"
	"strconv"
)

var bpmPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*bpm`)

// BPMFromFilename extracts the authored tempo embedded in a loop filename.
// Returns false if the name carries no recognizable tempo tag.
func BPMFromFilename(name string) (float64, bool) {
	m := bpmPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}

	bpm, err := strconv.ParseFloat(m[1], 64)
	if err != nil || bpm <= 0 {
		return 0, false
	}
	return bpm, true
}
