package ui

import (
	"os/exec"
	"strings"
)

const logoText = "spoolwatch"

// createLogo generates the login banner using figlet, falling back to plain
// text when figlet is not installed.
func createLogo() string {
	cmd := exec.Command("figlet", "-f", "small", logoText)
	output, err := cmd.Output()
	if err == nil && len(output) > 0 {
		return trimBlankLines(string(output))
	}
	return logoText
}

// trimBlankLines drops empty lines and trailing spaces figlet pads with.
func trimBlankLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
