// internal/handlers/scan_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/monabeauty/pos-be/internal/capture"
	"github.com/monabeauty/pos-be/internal/core/domain"
	"github.com/monabeauty/pos-be/internal/decode"
	"github.com/monabeauty/pos-be/internal/handlers"
	"github.com/monabeauty/pos-be/test/helpers"
	"github.com/monabeauty/pos-be/test/mocks"
)

// stubDecoder stands in for the full decode chain so image scan tests
// exercise the handler, not the symbology readers.
type stubDecoder struct {
	code domain.Code
	err  error
}

func (d *stubDecoder) Decode(ctx context.Context, f *decode.Frame) (domain.Code, domain.DecodeMethod, error) {
	if d.err != nil {
		return "", "", d.err
	}
	return d.code, domain.MethodStructured, nil
}

func TestScanHandler_PostScan(t *testing.T) {
	testProduct := helpers.CreateTestProduct()

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*mocks.MockScanService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name: "resolves_known_code",
			body: `{"code":"` + testProduct.Barcode.String() + `","method":"keystroke"}`,
			setupMocks: func(m *mocks.MockScanService) {
				m.EXPECT().
					Resolve(gomock.Any(), testProduct.Barcode.String(), domain.MethodKeystroke).
					Return(&domain.ScanResult{
						Status:  domain.ScanFound,
						Code:    testProduct.Barcode,
						Product: testProduct,
						Method:  domain.MethodKeystroke,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var result domain.ScanResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, domain.ScanFound, result.Status)
				require.NotNil(t, result.Product)
				assert.Equal(t, testProduct.ID, result.Product.ID)
			},
		},
		{
			name: "unknown_code_is_a_verdict_not_an_error",
			body: `{"code":"000000000000"}`,
			setupMocks: func(m *mocks.MockScanService) {
				m.EXPECT().
					Resolve(gomock.Any(), "000000000000", domain.MethodManual).
					Return(&domain.ScanResult{
						Status: domain.ScanUnknown,
						Code:   domain.Code("000000000000"),
						Method: domain.MethodManual,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var result domain.ScanResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, domain.ScanUnknown, result.Status)
				assert.Nil(t, result.Product)
			},
		},
		{
			name:           "rejects_unknown_method",
			body:           `{"code":"400638133393","method":"telepathy"}`,
			setupMocks:     func(m *mocks.MockScanService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Unknown scan method", response["error"])
			},
		},
		{
			name:           "rejects_malformed_body",
			body:           `{"code":`,
			setupMocks:     func(m *mocks.MockScanService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody:   func(t *testing.T, body []byte) {},
		},
		{
			name: "service_error",
			body: `{"code":"400638133393","method":"keystroke"}`,
			setupMocks: func(m *mocks.MockScanService) {
				m.EXPECT().
					Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("database connection failed"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Failed to resolve scan", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockScans := mocks.NewMockScanService(ctrl)
			tt.setupMocks(mockScans)

			handler := handlers.NewScanHandler(mockScans, nil, 10, helpers.TestLogger())

			req := httptest.NewRequest("POST", "/api/v1/scan", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.PostScan(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, w.Body.Bytes())
		})
	}
}

func TestScanHandler_PostScanImage(t *testing.T) {
	tests := []struct {
		name           string
		decoder        capture.Decoder
		fileField      string
		fileBytes      []byte
		setupMocks     func(*mocks.MockScanService)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:      "decodes_and_resolves_still",
			decoder:   &stubDecoder{code: domain.Code("400638133393")},
			fileField: "image",
			fileBytes: testPNG(t),
			setupMocks: func(m *mocks.MockScanService) {
				m.EXPECT().
					Resolve(gomock.Any(), "400638133393", domain.MethodStructured).
					Return(&domain.ScanResult{
						Status: domain.ScanFound,
						Code:   domain.Code("400638133393"),
						Method: domain.MethodStructured,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var result domain.ScanResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Equal(t, domain.ScanFound, result.Status)
			},
		},
		{
			name:           "undecodable_image_payload",
			decoder:        &stubDecoder{code: "irrelevant"},
			fileField:      "image",
			fileBytes:      []byte("this is not an image"),
			setupMocks:     func(m *mocks.MockScanService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Uploaded file is not a decodable image", response["error"])
			},
		},
		{
			name:           "image_without_readable_code",
			decoder:        &stubDecoder{err: domain.ErrNoCandidateRegion},
			fileField:      "image",
			fileBytes:      testPNG(t),
			setupMocks:     func(m *mocks.MockScanService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "undecodable", response["status"])
			},
		},
		{
			name:           "missing_file_field",
			decoder:        &stubDecoder{code: "irrelevant"},
			fileField:      "attachment",
			fileBytes:      testPNG(t),
			setupMocks:     func(m *mocks.MockScanService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "Image file is required", response["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockScans := mocks.NewMockScanService(ctrl)
			tt.setupMocks(mockScans)

			images := capture.NewImageSource(tt.decoder, helpers.TestLogger())
			handler := handlers.NewScanHandler(mockScans, images, 10, helpers.TestLogger())

			var body bytes.Buffer
			writer := multipart.NewWriter(&body)
			part, err := writer.CreateFormFile(tt.fileField, "still.png")
			require.NoError(t, err)
			_, err = part.Write(tt.fileBytes)
			require.NoError(t, err)
			require.NoError(t, writer.Close())

			req := httptest.NewRequest("POST", "/api/v1/scan/image", &body)
			req.Header.Set("Content-Type", writer.FormDataContentType())
			w := httptest.NewRecorder()

			handler.PostScanImage(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, w.Body.Bytes())
		})
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetGray(3, 3, color.Gray{Y: 0})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
