// Package subtitles accepts uploaded subtitle files for remuxing.
//
// Uploads are restricted to the configured extensions (srt and sub by
// default), renamed to a filesystem-safe base name, and re-encoded to UTF-8.
// Files that are not valid UTF-8 are decoded with a configurable legacy
// charset (windows-1251 by default), which covers the common case of Cyrillic
// subtitles authored on Windows.
package subtitles
