package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNearMeQuery_English(t *testing.T) {
	assert.True(t, IsNearMeQuery("pizza near me"))
	assert.True(t, IsNearMeQuery("anything nearby?"))
	assert.False(t, IsNearMeQuery("pizza in Tel Aviv"))
}

func TestIsNearMeQuery_Hebrew(t *testing.T) {
	assert.True(t, IsNearMeQuery("פיצה ליד אותי"))
}

func TestIsNearMeQuery_Spanish(t *testing.T) {
	assert.True(t, IsNearMeQuery("pizza cerca de mi"))
}
