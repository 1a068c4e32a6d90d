package handlers

import (
	"snapshare/internal/middleware"
	"snapshare/internal/models"
	"snapshare/internal/services"

	"github.com/gofiber/fiber/v2"
)

// APIHandler serves the JSON catalog API.
type APIHandler struct {
	videos     *services.VideoService
	engagement *services.EngagementService
	pageSize   int
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(videos *services.VideoService, engagement *services.EngagementService) *APIHandler {
	return &APIHandler{
		videos:     videos,
		engagement: engagement,
		pageSize:   models.DefaultPageSize,
	}
}

// RegisterRoutes registers the video API under api.
func (h *APIHandler) RegisterRoutes(api fiber.Router) {
	videoRoutes := api.Group("/videos")
	videoRoutes.Get("/", h.HandleListVideos)
	videoRoutes.Post("/", middleware.RequireAPIAuth(), h.HandleCreateVideo)
	videoRoutes.Get("/:id", h.HandleGetVideo)
	videoRoutes.Get("/:id/comments", h.HandleListComments)
	videoRoutes.Post("/:id/comments", middleware.RequireAPIAuth(), h.HandleCreateComment)
	videoRoutes.Post("/:id/ratings", middleware.RequireAPIAuth(), h.HandleRate)
	videoRoutes.Post("/:id/like", middleware.RequireAPIAuth(), h.HandleLike)
}

// videoPayload renders genre and age rating by their display labels.
type videoPayload struct {
	*models.VideoDetail
	Genre     string `json:"genre"`
	AgeRating string `json:"age_rating"`
}

func newVideoPayload(detail *models.VideoDetail) videoPayload {
	return videoPayload{
		VideoDetail: detail,
		Genre:       detail.Genre.Label(),
		AgeRating:   detail.AgeRating.Label(),
	}
}

// HandleListVideos returns one page of the catalog.
func (h *APIHandler) HandleListVideos(c *fiber.Ctx) error {
	filter := models.VideoFilter{
		Query:     c.Query("q"),
		Genre:     models.Genre(c.Query("genre")),
		AgeRating: models.AgeRating(c.Query("age_rating")),
	}
	page, err := h.videos.ListVideos(c.UserContext(), filter, pageParam(c), h.pageSize)
	if err != nil {
		return err
	}
	videos := page.Items
	if videos == nil {
		videos = []models.VideoSummary{}
	}
	return c.JSON(fiber.Map{
		"videos":    videos,
		"count":     page.Count,
		"num_pages": page.NumPages,
	})
}

// HandleGetVideo returns a video with all of its comments and rating summary.
// Views are not counted here.
func (h *APIHandler) HandleGetVideo(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	video, err := h.videos.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	comments, err := h.engagement.AllComments(ctx, id)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []models.CommentView{}
	}
	return c.JSON(fiber.Map{
		"video":          newVideoPayload(video),
		"comments":       comments,
		"average_rating": video.AverageRating,
		"rating_count":   video.RatingCount,
	})
}

// HandleCreateVideo accepts a multipart upload from a creator.
func (h *APIHandler) HandleCreateVideo(c *fiber.Ctx) error {
	in, cleanup, err := parseUpload(c)
	if err != nil {
		return err
	}
	defer cleanup()

	video, err := h.videos.UploadVideo(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		return err
	}
	detail, err := h.videos.GetVideo(c.UserContext(), video.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"video": newVideoPayload(detail)})
}

// HandleListComments returns one page of a video's comments, newest first.
func (h *APIHandler) HandleListComments(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	page, err := h.engagement.GetComments(c.UserContext(), id, pageParam(c), h.pageSize)
	if err != nil {
		return err
	}
	comments := page.Items
	if comments == nil {
		comments = []models.CommentView{}
	}
	return c.JSON(fiber.Map{
		"comments":  comments,
		"count":     page.Count,
		"num_pages": page.NumPages,
	})
}

// CommentRequest is the body of a new comment.
type CommentRequest struct {
	Text string `json:"text" form:"text"`
}

// HandleCreateComment posts a comment as the signed-in user.
func (h *APIHandler) HandleCreateComment(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	identity := middleware.CurrentIdentity(c)
	comment, err := h.engagement.PostComment(c.UserContext(), id, identity.UserID, req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(models.CommentView{
		ID:        comment.ID,
		User:      identity.Username,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	})
}

// RatingRequest is the body of a rating submission.
type RatingRequest struct {
	Rating int `json:"rating" form:"rating"`
}

// HandleRate records or replaces the signed-in user's rating.
func (h *APIHandler) HandleRate(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	ctx := c.UserContext()
	rating, err := h.engagement.SubmitRating(ctx, id, middleware.CurrentIdentity(c).UserID, req.Rating)
	if err != nil {
		return err
	}
	stats, err := h.engagement.RatingStats(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"rating":         rating.Rating,
		"average_rating": stats.Average,
		"rating_count":   stats.Count,
	})
}

// HandleLike toggles the signed-in user's like.
func (h *APIHandler) HandleLike(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	result, err := h.videos.ToggleLike(c.UserContext(), id, middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
