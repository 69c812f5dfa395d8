// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// blogPayload is the JSON create/update request body. Tags stays untyped
// because clients send a list, a JSON-encoded list, or a comma string.
type blogPayload struct {
	Title           *string     `json:"title"`
	Content         *string     `json:"content"`
	Excerpt         *string     `json:"excerpt"`
	Category        *string     `json:"category"`
	Tags            interface{} `json:"tags"`
	Status          *string     `json:"status"`
	Featured        *bool       `json:"featured"`
	MetaTitle       *string     `json:"metaTitle"`
	MetaDescription *string     `json:"metaDescription"`
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// parseBlogPayload reads the request body as JSON, or as multipart form
// fields when a cover file rides along. The returned file header is non-nil
// only for multipart requests carrying a "cover" part.
func (s *Server) parseBlogPayload(c *fiber.Ctx) (*blogPayload, *multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var req blogPayload
		if err := c.BodyParser(&req); err != nil {
			return nil, nil, models.NewValidationError("Invalid request body")
		}
		return &req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, models.NewValidationError("Invalid request body")
	}

	req := &blogPayload{}
	field := func(name string) *string {
		if vals, ok := form.Value[name]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	req.Title = field("title")
	req.Content = field("content")
	req.Excerpt = field("excerpt")
	req.Category = field("category")
	req.Status = field("status")
	req.MetaTitle = field("metaTitle")
	req.MetaDescription = field("metaDescription")
	if v := field("tags"); v != nil {
		req.Tags = *v
	}
	if v := field("featured"); v != nil {
		featured, perr := strconv.ParseBool(*v)
		if perr != nil {
			return nil, nil, models.NewValidationError("Invalid featured value")
		}
		req.Featured = &featured
	}

	var cover *multipart.FileHeader
	if files, ok := form.File["cover"]; ok && len(files) > 0 {
		cover = files[0]
	}
	return req, cover, nil
}

// uploadCover stores the multipart cover file and returns its content hash
// and public URL.
func (s *Server) uploadCover(c *fiber.Ctx, file *multipart.FileHeader) (hash, url string, err error) {
	src, err := file.Open()
	if err != nil {
		return "", "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", "", models.NewValidationError("Unable to read uploaded file")
	}

	asset, err := s.assetService.Upload(c.UserContext(), service.UploadAssetInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return "", "", err
	}
	return asset.Hash, s.assetService.URLFor(asset), nil
}

// CreateBlog handles POST /api/blogs (admin)
func (s *Server) CreateBlog(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	req, cover, err := s.parseBlogPayload(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	in := service.CreatePostInput{
		AuthorID:  userID,
		Title:     strOr(req.Title),
		Content:   strOr(req.Content),
		Excerpt:   strOr(req.Excerpt),
		Category:  strOr(req.Category),
		Tags:      req.Tags,
		Status:    strOr(req.Status),
		MetaTitle: strOr(req.MetaTitle),
		MetaDesc:  strOr(req.MetaDescription),
	}
	if req.Featured != nil {
		in.Featured = *req.Featured
	}

	// The cover goes to the asset store before any DB write; an upload
	// failure aborts creation outright.
	if cover != nil {
		hash, url, uerr := s.uploadCover(c, cover)
		if uerr != nil {
			return models.RespondWithAppError(c, uerr)
		}
		in.CoverID = hash
		in.CoverURL = url
	}

	post, err := s.postService.CreatePost(ctx, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, post)
}

// GetBlogs handles GET /api/blogs (public; drafts visible to admins only)
func (s *Server) GetBlogs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page, limit := parsePage(c, 10)

	in := service.ListPostsInput{
		Page:     page,
		Limit:    limit,
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		SortDir:  c.Query("sortDir"),
		IsAdmin:  s.callerIsAdmin(c),
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid featured value"))
		}
		in.Featured = &featured
	}

	posts, pagination, err := s.postService.ListPosts(ctx, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithPage(c, posts, pagination)
}

// GetBlogBySlug handles GET /api/blogs/:slug. A successful read counts one
// view and carries the full one-level comment tree.
func (s *Server) GetBlogBySlug(c *fiber.Ctx) error {
	ctx := c.UserContext()
	slug := c.Params("slug")

	post, err := s.postService.GetPostBySlug(ctx, slug, s.callerIsAdmin(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	roots, err := s.commentRepo.ListTopLevel(ctx, post.ID, -1, 0)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	post.Comments = make([]models.Comment, 0, len(roots))
	for _, root := range roots {
		replies, rerr := s.commentRepo.ListReplies(ctx, root.ID)
		if rerr != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, rerr)
		}
		root.Replies = make([]models.Comment, 0, len(replies))
		for _, reply := range replies {
			root.Replies = append(root.Replies, *reply)
		}
		post.Comments = append(post.Comments, *root)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// UpdateBlog handles PUT /api/blogs/:id (admin)
func (s *Server) UpdateBlog(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	req, cover, err := s.parseBlogPayload(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	in := service.UpdatePostInput{
		PostID:    postID,
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Category:  req.Category,
		Tags:      req.Tags,
		Featured:  req.Featured,
		MetaTitle: req.MetaTitle,
		MetaDesc:  req.MetaDescription,
	}

	// Cover replacement detaches the current asset before the new upload.
	// An upload failure therefore leaves the post coverless.
	if cover != nil {
		detached := ""
		if _, derr := s.postService.UpdatePost(ctx, service.UpdatePostInput{
			PostID:   postID,
			CoverID:  &detached,
			CoverURL: &detached,
		}); derr != nil {
			return models.RespondWithAppError(c, derr)
		}

		hash, url, uerr := s.uploadCover(c, cover)
		if uerr != nil {
			return models.RespondWithAppError(c, uerr)
		}
		in.CoverID = &hash
		in.CoverURL = &url
	}

	post, err := s.postService.UpdatePost(ctx, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// DeleteBlog handles DELETE /api/blogs/:id (admin)
func (s *Server) DeleteBlog(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), postID); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"message": "Blog deleted successfully",
	})
}

// ToggleBlogStatus handles PATCH /api/blogs/:id/status (admin)
func (s *Server) ToggleBlogStatus(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.TogglePublish(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// LikeBlog handles POST /api/blogs/:id/like. Anonymous likes count; repeat
// likes count again.
func (s *Server) LikeBlog(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.postService.LikePost(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"likesCount": count,
	})
}

// GetBlogStats handles GET /api/blogs/stats (admin)
func (s *Server) GetBlogStats(c *fiber.Ctx) error {
	stats, err := s.postService.GetStats(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, stats)
}
