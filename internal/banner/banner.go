// Package banner renders the "generated file" header placed on top of every
// build manifest and shim, in the comment syntax of the receiving file.
package banner

import "strings"

// Banner is a license block followed by the do-not-modify notice.
type Banner struct {
	License string // optional, one comment line per text line
	Command string // regeneration command named in the notice
}

func (b Banner) notice() []string {
	return []string{
		"**GENERATED FILE DO NOT MODIFY**",
		"",
		"This file is generated using:",
		"`" + b.Command + "`",
	}
}

func (b Banner) licenseLines() []string {
	text := strings.TrimRight(b.License, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Hash renders the banner with "#" line comments (CMake, GN, shell).
func (b Banner) Hash() string {
	return b.lineComments("#")
}

// Semicolon renders the banner with ";" line comments (NASM).
func (b Banner) Semicolon() string {
	return b.lineComments(";")
}

func (b Banner) lineComments(marker string) string {
	var sb strings.Builder
	if lic := b.licenseLines(); lic != nil {
		writeLines(&sb, marker, lic)
		sb.WriteString("\n")
	}
	writeLines(&sb, marker, b.notice())
	return sb.String()
}

// C renders the license as a block comment and the notice as "//" comments.
func (b Banner) C() string {
	var sb strings.Builder
	if lic := b.licenseLines(); lic != nil {
		sb.WriteString("/*\n")
		writeLines(&sb, " *", lic)
		sb.WriteString(" */\n\n")
	}
	writeLines(&sb, "//", b.notice())
	return sb.String()
}

func writeLines(sb *strings.Builder, marker string, lines []string) {
	for _, l := range lines {
		sb.WriteString(marker)
		if l != "" {
			sb.WriteString(" ")
			sb.WriteString(l)
		}
		sb.WriteString("\n")
	}
}
