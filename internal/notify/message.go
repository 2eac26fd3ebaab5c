// Package notify formats release announcements and posts them to a chat
// webhook.
package notify

import (
	"net/url"
	"strings"
	"time"
)

// TimeLayout is the layout of the release time line.
const TimeLayout = "2006-01-02 15:04:05"

const qrCodeBase = "https://api.qrserver.com/v1/create-qr-code/?size=250x250&data="

// Message is the content of a release announcement.
type Message struct {
	InstallerKey string
	ChangeLog    string
	Version      string
	ReleasedAt   time.Time

	// CDNBaseURL prefixes the installer key to build the download link
	CDNBaseURL string
}

// DownloadURL returns the public URL of the installer, or "" for a patch.
func (m Message) DownloadURL() string {
	if m.InstallerKey == "" {
		return ""
	}
	return m.CDNBaseURL + m.InstallerKey
}

// Format renders the announcement text.
func (m Message) Format() string {
	releaseType := "patch"
	if m.InstallerKey != "" {
		releaseType = "full package"
	}

	lines := []string{
		"Release type: " + releaseType,
		"Release time: " + m.ReleasedAt.Format(TimeLayout),
	}
	if m.Version != "" {
		lines = append(lines, "Version: "+m.Version)
	}
	if m.ChangeLog != "" {
		lines = append(lines, "\nChanges:", m.ChangeLog)
	}
	if download := m.DownloadURL(); download != "" {
		lines = append(lines,
			"\nDownload:", download,
			"\nQR code:", qrCodeBase+url.QueryEscape(download))
	}

	return strings.Join(lines, "\n")
}
