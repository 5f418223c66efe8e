package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yash-flix/VeriDoc-Ai/models"
	"github.com/yash-flix/VeriDoc-Ai/repository"
	"github.com/yash-flix/VeriDoc-Ai/utils"
	"github.com/yash-flix/VeriDoc-Ai/verification"
	"github.com/yash-flix/VeriDoc-Ai/worker"
)

// DocumentController serves listing, status, re-verification and manual review.
type DocumentController struct {
	repo   *repository.UploadRepo
	runner *worker.Runner
	queue  worker.Queue
	logger *zap.Logger
	now    func() time.Time
}

// NewDocumentController creates a new DocumentController instance.
func NewDocumentController(repo *repository.UploadRepo, runner *worker.Runner, queue worker.Queue, logger *zap.Logger) *DocumentController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentController{repo: repo, runner: runner, queue: queue, logger: logger, now: time.Now}
}

// List returns uploads newest first, optionally filtered by status and fileType.
func (d *DocumentController) List(ctx *gin.Context) {
	var filter repository.ListFilter
	if s := ctx.Query("status"); s != "" {
		st, ok := models.ParseStatus(s)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40040, "invalid status filter")
			return
		}
		filter.Status = st
	}
	if s := ctx.Query("fileType"); s != "" {
		ft, ok := models.ParseFileType(s)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40041, "invalid fileType filter")
			return
		}
		filter.FileType = ft
	}
	filter.Page, filter.PageSize = parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	uploads, total, err := d.repo.List(ctx.Request.Context(), filter)
	if err != nil {
		d.logger.Error("list uploads failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list documents")
		return
	}
	utils.Success(ctx, gin.H{
		"items":     uploads,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// Status returns the latest verification result of one upload.
func (d *DocumentController) Status(ctx *gin.Context) {
	u, err := d.repo.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		d.fail(ctx, err)
		return
	}
	utils.Success(ctx, u.Result)
}

// Verify re-runs verification inline, or queues it with ?async=true.
func (d *DocumentController) Verify(ctx *gin.Context) {
	id := ctx.Param("id")
	if wantAsync(ctx, false) && d.queue != nil {
		if _, err := d.repo.Get(ctx.Request.Context(), id); err != nil {
			d.fail(ctx, err)
			return
		}
		if err := d.queue.Enqueue(ctx.Request.Context(), id); err != nil {
			d.fail(ctx, err)
			return
		}
		utils.Accepted(ctx, gin.H{"id": id})
		return
	}

	u, err := d.runner.Run(ctx.Request.Context(), id)
	if err != nil {
		d.fail(ctx, err)
		return
	}
	utils.Success(ctx, u.Result)
}

// Approve overrides the automated verdict with a manual approval.
func (d *DocumentController) Approve(ctx *gin.Context) {
	d.override(ctx, verification.ApprovedResult(d.now()))
}

// Reject overrides the automated verdict with a manual rejection.
func (d *DocumentController) Reject(ctx *gin.Context) {
	d.override(ctx, verification.RejectedResult(d.now()))
}

func (d *DocumentController) override(ctx *gin.Context, res models.VerificationResult) {
	u, err := d.runner.Override(ctx.Request.Context(), ctx.Param("id"), res)
	if err != nil {
		d.fail(ctx, err)
		return
	}
	utils.Success(ctx, u.Result)
}

// fail maps domain errors onto the response envelope.
func (d *DocumentController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "document not found")
	case errors.Is(err, worker.ErrInFlight):
		utils.Error(ctx, http.StatusConflict, 40900, "verification already in progress")
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrQueueClosed):
		utils.Error(ctx, http.StatusServiceUnavailable, 50340, "verification queue unavailable")
	default:
		d.logger.Error("document request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50041, "internal error")
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
