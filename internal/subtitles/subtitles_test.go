package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subremux/internal/config"
	"subremux/internal/services"
)

// "Привет" in windows-1251.
var cp1251Greeting = []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}

const sampleSRT = "1\r\n00:00:01,000 --> 00:00:02,000\r\nHello\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nWorld\r\n"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.UploadDir = t.TempDir()
	store, err := NewStore(&cfg, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestDecode(t *testing.T) {
	decoder, err := NewDecoder("windows-1251")
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	tests := []struct {
		name     string
		input    []byte
		want     string
		encoding string
	}{
		{"ascii", []byte("plain text"), "plain text", "utf-8"},
		{"utf8", []byte("Привет"), "Привет", "utf-8"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hi")...), "hi", "utf-8"},
		{"cp1251", cp1251Greeting, "Привет", "windows-1251"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := decoder.Decode(tt.input)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want || enc != tt.encoding {
				t.Fatalf("decode = %q (%s), want %q (%s)", got, enc, tt.want, tt.encoding)
			}
		})
	}
}

func TestNewDecoder(t *testing.T) {
	if d, err := NewDecoder(""); err != nil || d.FallbackName() != "windows-1251" {
		t.Fatalf("default decoder = %v, %v", d, err)
	}
	if d, err := NewDecoder("ISO-8859-5"); err != nil || d.FallbackName() != "iso-8859-5" {
		t.Fatalf("iso decoder = %v, %v", d, err)
	}
	if _, err := NewDecoder("klingon"); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"movie.srt":            "movie.srt",
		"My Movie (2020).srt":  "My_Movie_2020.srt",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\film.sub`: "film.sub",
		"Amélie.srt":           "Amelie.srt",
		"..":                   "",
	}
	for input, want := range tests {
		if got := SanitizeName(input); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStoreSaveTranscodes(t *testing.T) {
	store := newTestStore(t)
	saved, err := store.Save(context.Background(), "greeting.SRT", cp1251Greeting)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Name != "greeting.SRT" || saved.Encoding != "windows-1251" {
		t.Fatalf("saved = %+v", saved)
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), "greeting.SRT"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Привет" {
		t.Fatalf("content = %q", data)
	}
}

func TestStoreSaveNonLatinName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Фильм.srt", "subtitle.srt"},
		{"ФИЛЬМ.SUB", "subtitle.sub"},
		{"Фильм 2.srt", "2.srt"},
		{`C:\Фильмы\Серия.srt`, "subtitle.srt"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			store := newTestStore(t)
			saved, err := store.Save(context.Background(), tt.filename, cp1251Greeting)
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if saved.Name != tt.want || saved.Path != filepath.Join(store.Dir(), tt.want) {
				t.Fatalf("saved = %+v, want name %q", saved, tt.want)
			}
			data, err := os.ReadFile(saved.Path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != "Привет" {
				t.Fatalf("content = %q", data)
			}
		})
	}
}

func TestStoreAllowedUsesUploadedName(t *testing.T) {
	store := newTestStore(t)
	for name, want := range map[string]bool{
		"Фильм.srt": true,
		"Фильм.txt": false,
		"Фильм":     false,
		"dir/a.SUB": true,
		`dir\a.srt`: true,
	} {
		if got := store.Allowed(name); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestStoreSaveCountsCues(t *testing.T) {
	store := newTestStore(t)
	saved, err := store.Save(context.Background(), "show.srt", []byte(sampleSRT))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Cues != 2 || saved.Encoding != "utf-8" {
		t.Fatalf("saved = %+v", saved)
	}
	again, err := store.Save(context.Background(), "show.srt", []byte("1\n00:00:01,000 --> 00:00:02,000\nreplaced\n"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if again.Cues != 1 {
		t.Fatalf("replacement cues = %d", again.Cues)
	}
}

func TestStoreSaveRejects(t *testing.T) {
	store := newTestStore(t)
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"bad extension", "movie.txt", []byte("x")},
		{"no extension", "movie", []byte("x")},
		{"non-latin without extension", "Фильм", []byte("x")},
		{"blank name", "  ", []byte("x")},
		{"empty name", "..", []byte("x")},
		{"empty data", "movie.srt", nil},
		{"too large", "movie.srt", make([]byte, store.MaxBytes()+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(context.Background(), tt.filename, tt.data)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Fatalf("rejected uploads left files behind: %v", entries)
	}
}

func TestDestinationFor(t *testing.T) {
	got := DestinationFor("/srv/subs", "/media/videos/show/ep01.mkv")
	if got != "/srv/subs/ep01.mkv" {
		t.Fatalf("destination = %q", got)
	}
}

func TestCountCues(t *testing.T) {
	if n := CountCues(sampleSRT); n != 2 {
		t.Fatalf("cues = %d", n)
	}
	if n := CountCues("{1}{25}microdvd line"); n != 0 {
		t.Fatalf("non-srt cues = %d", n)
	}
}
