package smf

import (
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DecodeMetaText converts the bytes of a text-family meta-event (track
// name, lyric, marker, and so on) from Shift-JIS -- the encoding many
// Japanese sequencers write into SMF text events -- to UTF-8. Hosts that
// know their files only ever use ASCII/Latin text can skip this and use the
// raw bytes directly.
func DecodeMetaText(raw []byte) (string, error) {
	decoder := japanese.ShiftJIS.NewDecoder()
	utf8Str, _, err := transform.String(decoder, string(raw))
	if err != nil {
		return "", wrapErr(ErrMalformed, err)
	}
	return utf8Str, nil
}

// EncodeMetaText converts a UTF-8 string to Shift-JIS bytes suitable for a
// text-family meta-event payload, the inverse of DecodeMetaText.
func EncodeMetaText(s string) ([]byte, error) {
	encoder := japanese.ShiftJIS.NewEncoder()
	sjisStr, _, err := transform.String(encoder, s)
	if err != nil {
		return nil, wrapErr(ErrMalformed, err)
	}
	return []byte(sjisStr), nil
}
