package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/uniform-portal/internal/models"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 66, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 100, Percent(5, 3))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Notify(1, New(models.LevelSuccess, "ok", "готово"))
	r.Notify(1, ForField("content", "пусто"))
	r.Notify(2, New(models.LevelInfo, "", "другой пользователь"))
	r.Progress(1, models.UploadProgress{Medium: models.MediumImage, Completed: 1, Total: 2, Percent: 50})

	assert.Len(t, r.Notifications(1), 2)
	errs := r.ByLevel(1, models.LevelError)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "content", errs[0].Field)
	}
	assert.Len(t, r.ProgressEvents(1), 1)
	assert.Empty(t, r.ProgressEvents(2))

	r.Reset()
	assert.Empty(t, r.Notifications(1))
}

func TestNew_UniqueIDs(t *testing.T) {
	a := New(models.LevelInfo, "", "a")
	b := Newf(models.LevelInfo, "", "%s", "b")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "b", b.Message)
}
