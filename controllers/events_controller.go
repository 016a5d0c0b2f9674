package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/audit"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/notify"
	"github.com/phillip/ngo-admin-console/store"
	"github.com/phillip/ngo-admin-console/utils"
)

type eventInput struct {
	Title           string `form:"title" json:"title"`
	Description     string `form:"description" json:"description"`
	Location        string `form:"location" json:"location"`
	Date            string `form:"date" json:"date"`
	Time            string `form:"time" json:"time"`
	Category        string `form:"category" json:"category"`
	MaxParticipants int    `form:"maxParticipants" json:"maxParticipants"`
	NgoID           string `form:"ngoId" json:"ngoId"`
}

func (in eventInput) missing() []string {
	var out []string
	fields := []struct {
		name  string
		value string
	}{
		{"title", in.Title},
		{"description", in.Description},
		{"location", in.Location},
		{"date", in.Date},
		{"time", in.Time},
		{"category", in.Category},
		{"ngoId", in.NgoID},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	if in.MaxParticipants == 0 {
		out = append(out, "maxParticipants")
	}
	return out
}

func eventSearchFields(e models.Event) []string {
	return append([]string{e.Title, e.NgoName, e.Location}, e.CategorySet()...)
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input eventInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if missing := input.missing(); len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all required fields", "missing": missing})
			return
		}
		if input.MaxParticipants < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxParticipants must be greater than zero"})
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		ngo, err := cfg.Accounts.GetNGO(ctx, input.NgoID)
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "NGO not found", "ngoId": input.NgoID})
			return
		}
		if err != nil {
			unavailable(c, cfg, "could not load NGO", err)
			return
		}

		images, ok := uploadImages(ctx, c, cfg, "images")
		if !ok {
			return
		}

		now := models.NewTimestamp(time.Now())
		event := models.Event{
			Title:               strings.TrimSpace(input.Title),
			Description:         strings.TrimSpace(input.Description),
			Location:            strings.TrimSpace(input.Location),
			Date:                input.Date,
			Time:                input.Time,
			Category:            input.Category,
			MaxParticipants:     input.MaxParticipants,
			CurrentParticipants: 0,
			NgoID:               ngo.ID,
			NgoName:             ngo.OrganizationName,
			CreatedBy:           actor(c),
			Status:              models.EventActive,
			Images:              images,
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		id, err := cfg.DB.Add(ctx, store.Events, event)
		if err != nil {
			unavailable(c, cfg, "could not create event", err)
			return
		}
		event.ID = id
		audit.Emit(ctx, cfg.Audit, cfg.Logger(), audit.New(audit.EventCreated, event.CreatedBy, id,
			map[string]any{"ngoId": ngo.ID, "title": event.Title}))

		email := ngo.Email
		if email == models.NoEmailAvailable {
			email = ""
		}
		result := cfg.Notifier.EventCreated(context.WithoutCancel(c.Request.Context()), notify.EventData{
			Email:            email,
			OrganizationName: ngo.OrganizationName,
			EventTitle:       event.Title,
			EventDate:        event.Date,
			EventTime:        event.Time,
			EventLocation:    event.Location,
		}).Wait()

		c.JSON(http.StatusCreated, gin.H{
			"message":      "Event created successfully",
			"event":        event,
			"notification": result,
		})
	}
}

// uploadImages stores the files under key. It writes the error response
// itself and reports false on failure.
func uploadImages(ctx context.Context, c *gin.Context, cfg *config.Config, key string) ([]string, bool) {
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return nil, false
	}
	if form == nil {
		return nil, true
	}

	var urls []string
	for _, fh := range form.File[key] {
		url, err := uploadImage(ctx, cfg.Images, fh)
		if err != nil {
			cfg.Logger().Errorw("image upload failed", "file", fh.Filename, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "image upload failed",
				"details": err.Error(),
				"file":    fh.Filename,
			})
			return nil, false
		}
		urls = append(urls, url)
	}
	return urls, true
}

func uploadImage(ctx context.Context, images utils.ImageStore, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return images.Upload(ctx, f, fh.Filename)
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		docs, err := cfg.DB.Query(ctx, store.Events, store.Query{OrderBy: "createdAt", Descending: true})
		if err != nil {
			unavailable(c, cfg, "could not fetch events", err)
			return
		}
		events := store.DecodeAll[models.Event](docs, func(id any, err error) {
			cfg.Logger().Warnw("skipping malformed event", "id", id, "error", err)
		})
		q := c.Query("q")
		events = accounts.Filter(events, q, eventSearchFields)

		if len(events) == 0 {
			c.JSON(http.StatusOK, []models.Event{})
			return
		}

		latest := events[0]
		for _, ev := range events {
			if ev.LastModified().After(latest.LastModified()) {
				latest = ev
			}
		}

		etag := utils.ListETag(len(events), q+":"+latest.ID, latest.LastModified())
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		if !latest.LastModified().IsZero() {
			c.Header("Last-Modified", latest.LastModified().UTC().Format(http.TimeFormat))
		}

		c.JSON(http.StatusOK, events)
	}
}

func loadEvent(ctx context.Context, cfg *config.Config, id string) (models.Event, error) {
	doc, err := cfg.DB.GetByID(ctx, store.Events, id)
	if err != nil {
		return models.Event{}, err
	}
	var event models.Event
	if err := store.Decode(doc, &event); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		event, err := loadEvent(ctx, cfg, c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		if err != nil {
			unavailable(c, cfg, "could not fetch event", err)
			return
		}

		etag := utils.GenerateETag(event.ID, event.LastModified())
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var input struct {
			Title           string   `form:"title" json:"title"`
			Description     string   `form:"description" json:"description"`
			Location        string   `form:"location" json:"location"`
			Date            string   `form:"date" json:"date"`
			Time            string   `form:"time" json:"time"`
			Category        string   `form:"category" json:"category"`
			MaxParticipants *int     `form:"maxParticipants" json:"maxParticipants"`
			Status          string   `form:"status" json:"status"`
			Images          []string `form:"images" json:"images"` // existing image URLs to keep
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		existing, err := loadEvent(ctx, cfg, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		if err != nil {
			unavailable(c, cfg, "could not fetch event", err)
			return
		}

		update := bson.M{}
		for k, v := range map[string]string{
			"title":       input.Title,
			"description": input.Description,
			"location":    input.Location,
			"date":        input.Date,
			"time":        input.Time,
			"category":    input.Category,
		} {
			if v = strings.TrimSpace(v); v != "" {
				update[k] = v
			}
		}
		if input.MaxParticipants != nil {
			if *input.MaxParticipants <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "maxParticipants must be greater than zero"})
				return
			}
			update["maxParticipants"] = *input.MaxParticipants
		}
		if input.Status != "" {
			switch input.Status {
			case models.EventActive, models.EventCancelled, models.EventCompleted:
				update["status"] = input.Status
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active, cancelled or completed"})
				return
			}
		}

		newImages, ok := uploadImages(ctx, c, cfg, "new_images")
		if !ok {
			return
		}
		var dropped []string
		if input.Images != nil || len(newImages) > 0 {
			kept := append([]string{}, input.Images...)
			update["images"] = append(kept, newImages...)
			dropped = removed(existing.Images, kept)
		}

		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}
		update["updatedAt"] = time.Now().UTC()

		if err := cfg.DB.Update(ctx, store.Events, id, update); err != nil {
			fail(c, cfg, "Could not update event", err)
			return
		}
		dropImages(ctx, cfg, dropped)
		updated, err := loadEvent(ctx, cfg, id)
		if err != nil {
			unavailable(c, cfg, "Failed to retrieve updated event", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Event updated successfully",
			"event":   updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		existing, err := loadEvent(ctx, cfg, id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		if err != nil {
			unavailable(c, cfg, "could not fetch event", err)
			return
		}

		if err := cfg.DB.Delete(ctx, store.Events, id); err != nil {
			fail(c, cfg, "failed to delete event", err)
			return
		}
		dropImages(ctx, cfg, existing.Images)
		audit.Emit(ctx, cfg.Audit, cfg.Logger(), audit.New(audit.EventDeleted, actor(c), id,
			map[string]any{"title": existing.Title}))

		c.JSON(http.StatusOK, gin.H{
			"message": "event deleted successfully",
			"id":      id,
		})
	}
}

// dropImages deletes hosted images; failures only leave orphans behind.
func dropImages(ctx context.Context, cfg *config.Config, urls []string) {
	for _, u := range urls {
		if err := cfg.Images.Delete(ctx, u); err != nil {
			cfg.Logger().Warnw("could not delete image", "url", u, "error", err)
		}
	}
}

func removed(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, u := range after {
		keep[u] = true
	}
	var out []string
	for _, u := range before {
		if !keep[u] {
			out = append(out, u)
		}
	}
	return out
}
