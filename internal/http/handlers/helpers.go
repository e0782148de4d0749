package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/handlers/common"
	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/upload"
)

// requireUser возвращает пользователя сессии или отвечает 401.
func requireUser(c *gin.Context) (int64, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		response.Error(c, apperror.ErrUnauthorized)
		return 0, false
	}
	return userID, true
}

// openFiles открывает части multipart формы. Вызывающий обязан вызвать closeAll.
func openFiles(headers []*multipart.FileHeader) ([]upload.File, func(), error) {
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл "+fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, upload.File{Name: fh.Filename, Size: fh.Size, Reader: f})
	}
	return files, closeAll, nil
}
