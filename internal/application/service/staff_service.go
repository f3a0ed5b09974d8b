package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// MaxPhotoSize is the largest staff photo accepted for upload
const MaxPhotoSize = 5 << 20

// Photo is an uploaded staff photo
type Photo struct {
	Filename string
	Data     []byte
}

// StaffService manages staff records and organisational reference data
type StaffService interface {
	List(ctx context.Context) ([]entity.StaffMember, error)
	Create(ctx context.Context, draft entity.StaffDraft, photo *Photo) (*entity.StaffMember, error)
	Update(ctx context.Context, id string, draft entity.StaffDraft) (*entity.StaffMember, error)
	Delete(ctx context.Context, id string) error
	Departments(ctx context.Context) ([]entity.Department, error)
	Teams(ctx context.Context) ([]entity.Team, error)
	PracticeAreas(ctx context.Context) ([]entity.PracticeArea, error)
}

type staffServiceImpl struct {
	backend
}

// NewStaffService creates a new StaffService
func NewStaffService(client *httpclient.Client, events dispatcher.Dispatcher, logger Logger) StaffService {
	return &staffServiceImpl{backend: backend{client: client, events: events, logger: logger}}
}

func (s *staffServiceImpl) get(ctx context.Context, path string, out any) error {
	return s.call(ctx, entity.ScopeCMS, httpclient.Request{Method: http.MethodGet, Path: path}, out)
}

func (s *staffServiceImpl) List(ctx context.Context) ([]entity.StaffMember, error) {
	var staff []entity.StaffMember
	if err := s.get(ctx, "/api/staff", &staff); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *staffServiceImpl) Departments(ctx context.Context) ([]entity.Department, error) {
	var departments []entity.Department
	if err := s.get(ctx, "/api/departments", &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (s *staffServiceImpl) Teams(ctx context.Context) ([]entity.Team, error) {
	var teams []entity.Team
	if err := s.get(ctx, "/api/teams", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *staffServiceImpl) PracticeAreas(ctx context.Context) ([]entity.PracticeArea, error) {
	var areas []entity.PracticeArea
	if err := s.get(ctx, "/api/practice-areas", &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// Create posts the staff record as multipart form data with an optional photo
func (s *staffServiceImpl) Create(ctx context.Context, draft entity.StaffDraft, photo *Photo) (*entity.StaffMember, error) {
	if err := entity.Validate(draft); err != nil {
		return nil, err
	}

	body, contentType, err := encodeStaffForm(draft, photo)
	if err != nil {
		return nil, err
	}

	var created entity.StaffMember
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/staff",
		Body:   body,
		Header: http.Header{"Content-Type": []string{contentType}},
	}
	if err := s.call(ctx, entity.ScopeCMS, req, &created); err != nil {
		s.logger.Error("Failed to create staff member", "email", draft.Email, "error", err)
		return nil, err
	}

	s.logger.Info("Staff member created", "id", created.ID, "has_photo", photo != nil)
	return &created, nil
}

func (s *staffServiceImpl) Update(ctx context.Context, id string, draft entity.StaffDraft) (*entity.StaffMember, error) {
	if err := entity.Validate(draft); err != nil {
		return nil, err
	}

	var updated entity.StaffMember
	req := httpclient.Request{Method: http.MethodPut, Path: "/api/staff/" + url.PathEscape(id), Body: draft}
	if err := s.call(ctx, entity.ScopeCMS, req, &updated); err != nil {
		s.logger.Error("Failed to update staff member", "id", id, "error", err)
		return nil, err
	}
	return &updated, nil
}

func (s *staffServiceImpl) Delete(ctx context.Context, id string) error {
	req := httpclient.Request{Method: http.MethodDelete, Path: "/api/staff/" + url.PathEscape(id)}
	if err := s.call(ctx, entity.ScopeCMS, req, nil); err != nil {
		s.logger.Error("Failed to delete staff member", "id", id, "error", err)
		return err
	}
	return nil
}

// DetectPhoto sniffs the photo's content and accepts images only
func DetectPhoto(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedPhoto)
	}
	if len(data) > MaxPhotoSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrUnsupportedPhoto, len(data), MaxPhotoSize)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPhoto, mtype.String())
	}
	return mtype.String(), nil
}

func encodeStaffForm(draft entity.StaffDraft, photo *Photo) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"name", draft.Name},
		{"email", draft.Email},
		{"title", draft.Title},
		{"departmentId", draft.DepartmentID},
		{"teamId", draft.TeamID},
		{"teamLeadId", draft.TeamLeadID},
		{"lineManagerId", draft.LineManagerID},
		{"isOnProbation", strconv.FormatBool(draft.IsOnProbation)},
		{"isVisible", strconv.FormatBool(draft.IsVisible)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f.key, err)
		}
	}
	for _, role := range draft.Roles {
		if err := w.WriteField("roles", string(role)); err != nil {
			return nil, "", fmt.Errorf("failed to write roles: %w", err)
		}
	}

	if photo != nil {
		contentType, err := DetectPhoto(photo.Data)
		if err != nil {
			return nil, "", err
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, photo.Filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create photo part: %w", err)
		}
		if _, err := part.Write(photo.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write photo: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
