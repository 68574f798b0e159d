package audio

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const ttsRequestTimeout = 10 * time.Second

// DefaultTTSEndpoint is Google Translate's free text-to-speech endpoint
const DefaultTTSEndpoint = "https://translate.google.com/translate_tts"

// TTSService turns encouragement messages into MP3 files so early readers
// can hear them read aloud
type TTSService struct {
	audioDir string
	endpoint string
	client   *http.Client
}

// NewTTSService creates a new TTS service writing into audioDir
func NewTTSService(audioDir string) *TTSService {
	return &TTSService{
		audioDir: audioDir,
		endpoint: DefaultTTSEndpoint,
		client:   &http.Client{Timeout: ttsRequestTimeout},
	}
}

// WithEndpoint overrides the TTS endpoint
func (s *TTSService) WithEndpoint(endpoint string) *TTSService {
	s.endpoint = endpoint
	return s
}

// AudioFilename returns the file name used for a message
func AudioFilename(text string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(text))))
	return "msg_" + hex.EncodeToString(sum[:8]) + ".mp3"
}

// Speak converts text to speech and saves it as MP3.
// Returns the filename (not full path) on success.
func (s *TTSService) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text to speak")
	}

	filename := AudioFilename(text)
	path := filepath.Join(s.audioDir, filename)

	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return filename, nil
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	if err := s.fetch(ctx, text, path); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	return filename, nil
}

// fetch downloads the spoken text into outputPath
func (s *TTSService) fetch(ctx context.Context, text, outputPath string) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", "en")
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent (required by Google)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Write to a temp file first so a failed download never leaves a partial MP3
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".tts-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return os.Rename(tmp.Name(), outputPath)
}

// PruneAudioFiles removes all but the keep most recently written MP3 files.
// Returns the number of files removed.
func (s *TTSService) PruneAudioFiles(keep int) (int, error) {
	entries, err := os.ReadDir(s.audioDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read audio directory: %w", err)
	}

	type audioFile struct {
		name    string
		modTime time.Time
	}
	var files []audioFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mp3" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, audioFile{name: e.Name(), modTime: info.ModTime()})
	}

	if len(files) <= keep {
		return 0, nil
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	removed := 0
	for _, f := range files[keep:] {
		if err := os.Remove(filepath.Join(s.audioDir, f.name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", f.name, err)
		}
		removed++
	}
	return removed, nil
}
