package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yash-flix/VeriDoc-Ai/models"
	"github.com/yash-flix/VeriDoc-Ai/repository"
	"github.com/yash-flix/VeriDoc-Ai/storage"
	"github.com/yash-flix/VeriDoc-Ai/utils"
	"github.com/yash-flix/VeriDoc-Ai/worker"
)

// UploadOptions tunes intake.
type UploadOptions struct {
	MaxBytes     int64
	AsyncDefault bool // verify in the background unless the request says otherwise
}

// UploadController accepts files, stores them and triggers verification.
type UploadController struct {
	repo   *repository.UploadRepo
	store  storage.Store
	runner *worker.Runner
	queue  worker.Queue
	opts   UploadOptions
	logger *zap.Logger
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(repo *repository.UploadRepo, store storage.Store, runner *worker.Runner, queue worker.Queue, opts UploadOptions, logger *zap.Logger) *UploadController {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 25 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadController{repo: repo, store: store, runner: runner, queue: queue, opts: opts, logger: logger}
}

// Upload handles POST /upload with a multipart "file" and a "fileType" field.
func (c *UploadController) Upload(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	fileType, ok := models.ParseFileType(ctx.PostForm("fileType"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40031, "fileType must be one of document, image, video, text")
		return
	}

	if header.Size > c.opts.MaxBytes {
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", c.opts.MaxBytes>>20))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, c.opts.MaxBytes+1))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "failed to read file")
		return
	}
	if int64(len(data)) > c.opts.MaxBytes {
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", c.opts.MaxBytes>>20))
		return
	}
	if len(data) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40033, "file is empty")
		return
	}

	name := utils.SanitizeFileName(header.Filename)
	if name == "" {
		name = fmt.Sprintf("file_%d", time.Now().UnixNano())
	}
	contentType := mimetype.Detect(data).String()
	key := storage.ObjectKey(name, time.Now())

	url, err := c.store.Put(ctx.Request.Context(), key, data, contentType)
	if err != nil {
		c.logger.Error("store upload failed", zap.String("key", key), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save file")
		return
	}

	u := &models.Upload{
		ID:              uuid.NewString(),
		FileType:        fileType,
		FileURL:         url,
		FileName:        name,
		StorageProvider: c.store.Name(),
		StorageID:       key,
		ContentType:     contentType,
		Size:            int64(len(data)),
	}
	if err := c.repo.Create(ctx.Request.Context(), u); err != nil {
		c.logger.Error("create upload record failed", zap.String("key", key), zap.Error(err))
		c.discard(key)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to record upload")
		return
	}
	c.logger.Info("upload stored",
		zap.String("upload_id", u.ID),
		zap.String("file_type", string(u.FileType)),
		zap.String("content_type", contentType),
		zap.Int64("size", u.Size))

	if wantAsync(ctx, c.opts.AsyncDefault) && c.queue != nil {
		err := c.queue.Enqueue(ctx.Request.Context(), u.ID)
		if err == nil {
			utils.Accepted(ctx, u)
			return
		}
		c.logger.Warn("enqueue failed, verifying inline", zap.String("upload_id", u.ID), zap.Error(err))
	}

	verified, err := c.runner.Run(ctx.Request.Context(), u.ID)
	if err != nil {
		// the upload itself succeeded; the record stays pending
		c.logger.Warn("inline verification failed", zap.String("upload_id", u.ID), zap.Error(err))
		utils.Success(ctx, u)
		return
	}
	utils.Success(ctx, verified)
}

// discard removes a stored blob that never got a record. It runs detached
// from the request so a cancelled client does not leave the object behind.
func (c *UploadController) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("orphaned upload blob",
			zap.String("provider", c.store.Name()),
			zap.String("key", key),
			zap.Error(err))
	}
}

// wantAsync reads the "async" query or form value, defaulting to def.
func wantAsync(ctx *gin.Context, def bool) bool {
	raw := ctx.Query("async")
	if raw == "" {
		raw = ctx.PostForm("async")
	}
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
