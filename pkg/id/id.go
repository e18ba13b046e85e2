package id

import (
	"crypto/md5"
	"io"

	uuidutil "github.com/fox-one/pkg/uuid"
	"github.com/gofrs/uuid"
)

// GenTraceID new random trace id
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// TraceIDFrom derives a deterministic trace id from text, so replays
// of the same logical operation land on the same journal row.
func TraceIDFrom(text string) string {
	return UUIDFromString(text)
}

// Modify folds a modifier into an existing trace id, keeping derived
// ids stable across retries of the same logical step.
func Modify(traceID, modifier string) string {
	return uuidutil.Modify(traceID, modifier)
}

// UUIDByName new uuid string from a namespace uuid and a name
func UUIDByName(uuidStr, name string) string {
	ns, err := uuid.FromString(uuidStr)
	if err != nil {
		panic(err)
	}

	return uuid.NewV5(ns, name).String()
}

// UUIDFromString new uuid string from arbitrary text
func UUIDFromString(text string) string {
	h := md5.New()
	io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}
