package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/resume"
)

const (
	MaxResumeSize  = 10 << 20
	MaxPictureSize = 5 << 20
)

var (
	resumeTypes = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	pictureTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}
)

type upload struct {
	name    string
	content []byte
	mime    *mimetype.MIME
}

// readUpload reads a multipart file field, enforcing size and sniffed type.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string, maxSize int64, allowed []string) (*upload, bool) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, false
		}
		h.Error(w, http.StatusBadRequest, "invalid multipart body")
		return nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		h.Error(w, http.StatusBadRequest, field+" file is required")
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "failed to read upload")
		return nil, false
	}
	if int64(len(content)) > maxSize {
		h.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return nil, false
	}

	mtype := mimetype.Detect(content)
	if !mimeAllowed(mtype, allowed) {
		h.Error(w, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported file type %s", mtype.String()))
		return nil, false
	}
	return &upload{name: header.Filename, content: content, mime: mtype}, true
}

func mimeAllowed(m *mimetype.MIME, allowed []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

// saveUpload writes an upload under UploadDir/kind and returns its public URL path.
func (h *Handler) saveUpload(kind, owner string, u *upload) (string, error) {
	dir := filepath.Join(h.UploadDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := owner + "-" + strings.ToLower(ulid.Make().String()) + u.mime.Extension()
	if err := os.WriteFile(filepath.Join(dir, name), u.content, 0o644); err != nil {
		return "", err
	}
	return path.Join("/uploads", kind, name), nil
}

// UploadResume stores a CV and, when a parser is configured, merges the
// extracted skills into the profile.
func (h *Handler) UploadResume(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if !h.selfOrAdmin(r, id) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	u, ok := h.readUpload(w, r, "resume", MaxResumeSize, resumeTypes)
	if !ok {
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	url, err := h.saveUpload("resumes", id.String(), u)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	user.Profile.Resume = url

	var parsed *resume.Parsed
	if h.Parser != nil {
		parsed, err = h.Parser.Parse(r.Context(), u.name, u.content)
		switch {
		case errors.Is(err, resume.ErrNotConfigured):
		case err != nil:
			h.logger.Warn().Err(err).Str("user_id", id.String()).Msg("resume parsing failed")
		default:
			parsed.MergeInto(&user.Profile)
		}
	}

	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Resume uploaded",
		"resume":  url,
		"parsed":  parsed,
		"user":    user,
	})
}

// UploadPicture stores a profile picture.
func (h *Handler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if !h.selfOrAdmin(r, id) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	u, ok := h.readUpload(w, r, "picture", MaxPictureSize, pictureTypes)
	if !ok {
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	url, err := h.saveUpload("pictures", id.String(), u)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	user.Picture = url
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Picture uploaded", "picture": url})
}

// ParseResume forwards a resume to the parser without storing it.
func (h *Handler) ParseResume(w http.ResponseWriter, r *http.Request) {
	u, ok := h.readUpload(w, r, "resume", MaxResumeSize, resumeTypes)
	if !ok {
		return
	}
	if h.Parser == nil {
		h.Error(w, http.StatusServiceUnavailable, resume.ErrNotConfigured.Error())
		return
	}
	parsed, err := h.Parser.Parse(r.Context(), u.name, u.content)
	if errors.Is(err, resume.ErrNotConfigured) {
		h.Error(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.Upstream(w, r, "Resume parsing failed", err)
		return
	}
	h.JSON(w, http.StatusOK, parsed)
}
