package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"snapshare/internal/middleware"
	"snapshare/internal/models"
	"snapshare/internal/services"
	"snapshare/internal/templates"

	"github.com/gofiber/fiber/v2"
)

const onlyCreatorsMessage = "Only creators can upload videos."

// VideoHandler serves the catalog pages.
type VideoHandler struct {
	videos     *services.VideoService
	engagement *services.EngagementService
	pageSize   int
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videos *services.VideoService, engagement *services.EngagementService) *VideoHandler {
	return &VideoHandler{
		videos:     videos,
		engagement: engagement,
		pageSize:   models.DefaultPageSize,
	}
}

// RegisterRoutes registers the catalog pages.
func (h *VideoHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)

	upload := router.Group("/upload", middleware.LoginRequired(), creatorsOnly())
	upload.Get("", h.HandleUploadForm)
	upload.Post("", h.HandleUpload)

	router.Get("/video/:id", h.HandleDetail)
	router.Post("/video/:id/like", middleware.RequireAPIAuth(), h.HandleLike)
	router.Post("/video/:id", middleware.LoginRequired(), h.HandleEngage)
}

// creatorsOnly sends consumers back home with an explanation.
func creatorsOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !middleware.CurrentIdentity(c).IsCreator() {
			setFlash(c, flashError, onlyCreatorsMessage)
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}

// HandleHome lists the catalog, optionally searched and filtered by genre.
func (h *VideoHandler) HandleHome(c *fiber.Ctx) error {
	filter := services.NormalizeFilter(models.VideoFilter{
		Query: c.Query("q"),
		Genre: models.Genre(c.Query("genre")),
	})
	page, err := h.videos.ListVideos(c.UserContext(), filter, pageParam(c), h.pageSize)
	if err != nil {
		return err
	}
	return render(c, "videos/home", fiber.Map{
		"Page":   page,
		"Filter": filter,
		"Genres": models.Genres,
	})
}

// HandleUploadForm shows an empty upload form.
func (h *VideoHandler) HandleUploadForm(c *fiber.Ctx) error {
	return h.renderUpload(c, services.UploadInput{Genre: models.GenreOther, AgeRating: models.AgeRatingG}, map[string]string{}, nil)
}

func (h *VideoHandler) renderUpload(c *fiber.Ctx, form services.UploadInput, errs map[string]string, flash *templates.Flash) error {
	form.VideoFile, form.Thumbnail = nil, nil
	data := fiber.Map{
		"PageTitle":  "Upload",
		"Form":       form,
		"Errors":     errs,
		"Genres":     models.Genres,
		"AgeRatings": models.AgeRatings,
	}
	if flash != nil {
		data["Flash"] = flash
	}
	return render(c, "videos/upload", data)
}

// HandleUpload stores the submitted video and opens its page.
func (h *VideoHandler) HandleUpload(c *fiber.Ctx) error {
	in, cleanup, err := parseUpload(c)
	if err != nil {
		return err
	}
	defer cleanup()

	video, err := h.videos.UploadVideo(c.UserContext(), middleware.CurrentIdentity(c), in)
	if err != nil {
		if errs, ok := fieldErrors(err); ok {
			return h.renderUpload(c, in, errs, flashOf(flashError, "Please correct the errors below."))
		}
		if errors.Is(err, services.ErrForbidden) {
			setFlash(c, flashError, onlyCreatorsMessage)
			return c.Redirect("/", fiber.StatusFound)
		}
		return err
	}

	setFlash(c, flashSuccess, "Video uploaded successfully!")
	return c.Redirect(fmt.Sprintf("/video/%d", video.ID), fiber.StatusFound)
}

// parseUpload reads the upload form. The returned cleanup closes any opened
// files.
func parseUpload(c *fiber.Ctx) (services.UploadInput, func(), error) {
	var in services.UploadInput
	if err := c.BodyParser(&in); err != nil {
		return in, func() {}, fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}
	videoFile, closeVideo, err := formUpload(c, "video_file")
	if err != nil {
		return in, func() {}, err
	}
	thumbnail, closeThumbnail, err := formUpload(c, "thumbnail")
	if err != nil {
		closeVideo()
		return in, func() {}, err
	}
	in.VideoFile, in.Thumbnail = videoFile, thumbnail
	return in, func() {
		closeVideo()
		closeThumbnail()
	}, nil
}

// HandleDetail counts a view and shows the video with its comments.
func (h *VideoHandler) HandleDetail(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	if err := h.videos.RecordView(ctx, id); err != nil {
		return err
	}
	video, err := h.videos.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	comments, err := h.engagement.GetComments(ctx, id, pageParam(c), h.pageSize)
	if err != nil {
		return err
	}

	var (
		userRating *int
		liked      bool
	)
	if identity := middleware.CurrentIdentity(c); identity != nil {
		if userRating, err = h.engagement.UserRating(ctx, id, identity.UserID); err != nil {
			return err
		}
		if liked, err = h.videos.IsLiked(ctx, id, identity.UserID); err != nil {
			return err
		}
	}

	return render(c, "videos/detail", fiber.Map{
		"PageTitle":  video.Title,
		"Video":      video,
		"Comments":   comments,
		"UserRating": userRating,
		"IsLiked":    liked,
	})
}

// HandleEngage processes the comment and rating forms of the detail page.
func (h *VideoHandler) HandleEngage(c *fiber.Ctx) error {
	id, err := videoID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	identity := middleware.CurrentIdentity(c)
	detailURL := fmt.Sprintf("/video/%d", id)

	switch {
	case c.FormValue("comment_submit") != "":
		_, err = h.engagement.PostComment(ctx, id, identity.UserID, c.FormValue("text"))
		if err == nil {
			setFlash(c, flashSuccess, "Comment posted successfully!")
		}
	case c.FormValue("rating_submit") != "":
		rating, convErr := strconv.Atoi(c.FormValue("rating"))
		if convErr != nil {
			rating = 0 // fails the range check
		}
		_, err = h.engagement.SubmitRating(ctx, id, identity.UserID, rating)
		if err == nil {
			setFlash(c, flashSuccess, "Rating submitted successfully!")
		}
	}

	if err != nil {
		errs, ok := fieldErrors(err)
		if !ok {
			return err
		}
		for _, message := range errs {
			setFlash(c, flashError, message)
			break
		}
	}
	return c.Redirect(detailURL, fiber.StatusFound)
}

// HandleLike toggles the user's like and reports the new state.
func (h *VideoHandler) HandleLike(c *fiber.Ctx) error {
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
