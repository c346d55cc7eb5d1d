package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAudioContentTypeForExt(t *testing.T) {
	assert.Equal(t, "audio/webm", AudioContentTypeForExt("webm"))
	assert.Equal(t, "audio/mpeg", AudioContentTypeForExt("mp3"))
	assert.Equal(t, "audio/mp4", AudioContentTypeForExt("m4a"))
	assert.Equal(t, "audio/wav", AudioContentTypeForExt("WAV"))
	assert.Equal(t, "application/octet-stream", AudioContentTypeForExt("exe"))
}

func TestObjectKey(t *testing.T) {
	storage := &AudioStorage{bucketName: "classtrack-audio"}
	userID := uuid.New()

	key := storage.ObjectKey(userID, ".MP3")
	assert.True(t, strings.HasPrefix(key, "audio/"+userID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".mp3"))

	// Keys are unique per call.
	assert.NotEqual(t, key, storage.ObjectKey(userID, "mp3"))

	// Extension defaults to webm.
	assert.True(t, strings.HasSuffix(storage.ObjectKey(userID, ""), ".webm"))
}

func TestPublicURL(t *testing.T) {
	storage := &AudioStorage{bucketName: "classtrack-audio", publicBase: "http://localhost:9000"}
	url := storage.PublicURL("audio/u/123-abc.webm")
	assert.Equal(t, "http://localhost:9000/classtrack-audio/audio/u/123-abc.webm", url)
}
