package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/qr-links/internal/entity"
)

const (
	aliceToken = "alice-token"
	ownerAlice = "alice"
)

type HandlersTestSuite struct {
	suite.Suite
	logger           *httplog.Logger
	linkUseCaseMock  *mockLinkUseCase
	scanRecorderMock *mockScanRecorder
	server           *httptest.Server
	e                *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.linkUseCaseMock = new(mockLinkUseCase)
	suite.scanRecorderMock = new(mockScanRecorder)

	router := NewRouter(suite.logger, suite.linkUseCaseMock, suite.scanRecorderMock, staticTokens{
		aliceToken: ownerAlice,
	})
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.linkUseCaseMock.AssertExpectations(suite.T())
	suite.scanRecorderMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) auth(req *httpexpect.Request) *httpexpect.Request {
	return req.WithHeader("Authorization", "Bearer "+aliceToken)
}

func (suite *HandlersTestSuite) link(destinationURL string) *entity.Link {
	scannedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	return &entity.Link{
		ID:             "abc123",
		OwnerID:        ownerAlice,
		DestinationURL: destinationURL,
		InternalURL:    "https://qr.example.org/qr/abc123",
		PublicAlias:    "https://tiny.example/x",
		EncodedImage:   []byte{0x89, 'P', 'N', 'G'},
		LinkStats: entity.LinkStats{
			ScanCount:  3,
			LastScanAt: &scannedAt,
		},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *HandlersTestSuite) TestPing() {
	const path = "/api/v1/ping"

	suite.Run("success", func() {
		suite.e.GET(path).
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestAuthentication() {
	const path = "/api/v1/links"

	suite.Run("missing token", func() {
		resp := suite.e.GET(path).
			Expect().
			Status(http.StatusUnauthorized)

		resp.Header("WWW-Authenticate").IsEqual("Bearer")
		resp.JSON().Object().HasValue("status", "error")
	})

	suite.Run("wrong scheme", func() {
		suite.e.GET(path).
			WithHeader("Authorization", "Basic "+aliceToken).
			Expect().
			Status(http.StatusUnauthorized)
	})

	suite.Run("invalid token", func() {
		suite.e.GET(path).
			WithHeader("Authorization", "Bearer forged").
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object().
			HasValue("status", "error")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	const path = "/qr/%s"

	suite.Run("link not found", func() {
		suite.scanRecorderMock.
			On("RecordScan", mock.Anything, "missing").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		resp := suite.e.GET(fmt.Sprintf(path, "missing")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "link not found")
	})

	suite.Run("server error", func() {
		suite.scanRecorderMock.
			On("RecordScan", mock.Anything, "abc123").
			Once().
			Return(nil, errors.New("unknown error"))

		suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().
			HasValue("status", "error")
	})

	suite.Run("success", func() {
		suite.scanRecorderMock.
			On("RecordScan", mock.Anything, "abc123").
			Once().
			Return(suite.link("https://example.com/b"), nil)

		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusFound)

		resp.Header("Location").IsEqual("https://example.com/b")
		resp.Header("Cache-Control").IsEqual("no-store")
	})
}

func (suite *HandlersTestSuite) TestCreateLink() {
	const path = "/api/v1/links"

	suite.Run("empty request body", func() {
		resp := suite.auth(suite.e.POST(path)).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "empty request body")
	})

	suite.Run("invalid request body", func() {
		resp := suite.auth(suite.e.POST(path)).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "invalid request body")
	})

	suite.Run("validation error", func() {
		resp := suite.auth(suite.e.POST(path)).
			WithJSON(map[string]string{"destination_url": ""}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "destination_url").
			HasValue("message", "this field is required")
	})

	suite.Run("too long url", func() {
		resp := suite.auth(suite.e.POST(path)).
			WithJSON(map[string]string{"destination_url": "https://example.com/" + strings.Repeat("a", 2048)}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "destination_url").
			HasValue("message", "value is too long")
	})

	suite.Run("invalid url", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, ownerAlice, "ftp://example.com").
			Once().
			Return(nil, fmt.Errorf("wrapped: %w", entity.ErrInvalidURL))

		resp := suite.auth(suite.e.POST(path)).
			WithJSON(map[string]string{"destination_url": "ftp://example.com"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "destination_url")
	})

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, ownerAlice, "example.com").
			Once().
			Return(nil, errors.New("unknown error"))

		resp := suite.auth(suite.e.POST(path)).
			WithJSON(map[string]string{"destination_url": "example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("message", "server error occurred")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("CreateLink", mock.Anything, ownerAlice, "example.com").
			Once().
			Return(suite.link("https://example.com"), nil)

		resp := suite.auth(suite.e.POST(path)).
			WithJSON(map[string]string{"destination_url": "example.com"}).
			Expect().
			Status(http.StatusCreated)

		resp.Header("Location").IsEqual("/api/v1/links/abc123")

		obj := resp.JSON().Object()
		obj.HasValue("id", "abc123")
		obj.HasValue("destination_url", "https://example.com")
		obj.HasValue("internal_url", "https://qr.example.org/qr/abc123")
		obj.HasValue("public_alias", "https://tiny.example/x")
		obj.Value("encoded_image").String().HasPrefix("data:image/png;base64,")
		obj.Value("stats").Object().HasValue("scan_count", 3)
		obj.ContainsKey("created_at")
		obj.ContainsKey("updated_at")
		obj.NotContainsKey("owner_id")
	})
}

func (suite *HandlersTestSuite) TestListLinks() {
	const path = "/api/v1/links"

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything, ownerAlice).
			Once().
			Return(nil, errors.New("unknown error"))

		suite.auth(suite.e.GET(path)).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("no links", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything, ownerAlice).
			Once().
			Return([]*entity.Link{}, nil)

		suite.auth(suite.e.GET(path)).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("ListLinks", mock.Anything, ownerAlice).
			Once().
			Return([]*entity.Link{suite.link("https://example.com")}, nil)

		arr := suite.auth(suite.e.GET(path)).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		arr.Length().IsEqual(1)
		arr.Value(0).Object().HasValue("id", "abc123")
	})
}

func (suite *HandlersTestSuite) TestGetLink() {
	const path = "/api/v1/links/%s"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.auth(suite.e.GET(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("message", "link not found")
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(suite.link("https://example.com"), nil)

		stats := suite.auth(suite.e.GET(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("stats").Object()

		stats.HasValue("scan_count", 3)
		stats.HasValue("last_scan_at", "2026-02-01T00:00:00Z")
	})
}

func (suite *HandlersTestSuite) TestGetLinkImage() {
	const path = "/api/v1/links/%s/qr.png"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.auth(suite.e.GET(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(suite.link("https://example.com"), nil)

		resp := suite.auth(suite.e.GET(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusOK)

		resp.Header("Content-Type").IsEqual("image/png")
		resp.Body().IsEqual(string([]byte{0x89, 'P', 'N', 'G'}))
	})

	suite.Run("client gone while writing image", func() {
		suite.linkUseCaseMock.
			On("GetLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(suite.link("https://example.com"), nil)

		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "abc123")
		ctx := context.WithValue(withOwnerID(context.Background(), ownerAlice), chi.RouteCtxKey, rctx)
		r := httptest.NewRequest(http.MethodGet, fmt.Sprintf(path, "abc123"), nil).WithContext(ctx)
		w := &failingWriter{ResponseRecorder: httptest.NewRecorder()}

		suite.NotPanics(func() {
			newLinkHandler(suite.linkUseCaseMock, validator.New()).getLinkImage(w, r)
		})
		suite.Equal(http.StatusOK, w.Code)
		suite.Equal("image/png", w.Header().Get("Content-Type"))
		suite.Equal(1, w.writes)
	})
}

func (suite *HandlersTestSuite) TestModifyLink() {
	const path = "/api/v1/links/%s"

	suite.Run("empty request body", func() {
		suite.auth(suite.e.PUT(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("message", "empty request body")
	})

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("ModifyLink", mock.Anything, ownerAlice, "abc123", "https://example.com/b").
			Once().
			Return(nil, entity.ErrLinkNotFound)

		suite.auth(suite.e.PUT(fmt.Sprintf(path, "abc123"))).
			WithJSON(map[string]string{"destination_url": "https://example.com/b"}).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("invalid url", func() {
		suite.linkUseCaseMock.
			On("ModifyLink", mock.Anything, ownerAlice, "abc123", "https://").
			Once().
			Return(nil, entity.ErrInvalidURL)

		suite.auth(suite.e.PUT(fmt.Sprintf(path, "abc123"))).
			WithJSON(map[string]string{"destination_url": "https://"}).
			Expect().
			Status(http.StatusBadRequest)
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("ModifyLink", mock.Anything, ownerAlice, "abc123", "https://example.com/b").
			Once().
			Return(suite.link("https://example.com/b"), nil)

		resp := suite.auth(suite.e.PUT(fmt.Sprintf(path, "abc123"))).
			WithJSON(map[string]string{"destination_url": "https://example.com/b"}).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("destination_url", "https://example.com/b")
		resp.HasValue("public_alias", "https://tiny.example/x")
	})
}

func (suite *HandlersTestSuite) TestRemoveLink() {
	const path = "/api/v1/links/%s"

	suite.Run("link not found", func() {
		suite.linkUseCaseMock.
			On("RemoveLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(entity.ErrLinkNotFound)

		suite.auth(suite.e.DELETE(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusNotFound)
	})

	suite.Run("server error", func() {
		suite.linkUseCaseMock.
			On("RemoveLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(errors.New("unknown error"))

		suite.auth(suite.e.DELETE(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusInternalServerError)
	})

	suite.Run("success", func() {
		suite.linkUseCaseMock.
			On("RemoveLink", mock.Anything, ownerAlice, "abc123").
			Once().
			Return(nil)

		suite.auth(suite.e.DELETE(fmt.Sprintf(path, "abc123"))).
			Expect().
			Status(http.StatusNoContent).
			NoContent()
	})
}

type failingWriter struct {
	*httptest.ResponseRecorder
	writes int
}

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("connection reset by peer")
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
