package botapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jdelaire/tgrambot/adapters/botapi"
)

func TestRequestJSONBody(t *testing.T) {
	var gotPath, gotType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{"message_id": 5}})
	}))
	defer srv.Close()

	c := botapi.New("123:abc").WithBaseURL(srv.URL)
	resp, err := c.SendMessage(context.Background(), 42, "hello", botapi.Params{"parse_mode": "HTML"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("content-type = %q", gotType)
	}
	if gotBody["text"] != "hello" || gotBody["chat_id"] != float64(42) || gotBody["parse_mode"] != "HTML" {
		t.Errorf("body = %v", gotBody)
	}

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := resp.Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.MessageID != 5 {
		t.Errorf("message_id = %d, want 5", result.MessageID)
	}
}

func TestRequestRequiredFieldsWinOverOpts(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	if _, err := c.SendMessage(context.Background(), 1, "real", botapi.Params{"text": "override"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody["text"] != "real" {
		t.Errorf("text = %v, want real", gotBody["text"])
	}
}

func TestRequestMultipartUpload(t *testing.T) {
	var fields map[string]string
	var fileName, fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f, hdr, err := r.FormFile("photo")
		if err == nil {
			fileName = hdr.Filename
			data, _ := io.ReadAll(f)
			fileBody = string(data)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{}})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	photo := botapi.FileReader("cat.jpg", strings.NewReader("jpegbytes"))
	_, err := c.SendPhoto(context.Background(), 7, photo, botapi.Params{
		"caption":      "a cat",
		"reply_markup": map[string]any{"inline_keyboard": []any{}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fields["chat_id"] != "7" || fields["caption"] != "a cat" {
		t.Errorf("fields = %v", fields)
	}
	if fields["reply_markup"] != `{"inline_keyboard":[]}` {
		t.Errorf("reply_markup = %q", fields["reply_markup"])
	}
	if fileName != "cat.jpg" || fileBody != "jpegbytes" {
		t.Errorf("file = %q %q", fileName, fileBody)
	}
}

func TestSendPhotoByFileID(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{}})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	if _, err := c.SendPhoto(context.Background(), 7, "AgACfileid", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody["photo"] != "AgACfileid" {
		t.Errorf("photo = %v", gotBody["photo"])
	}
}

func TestSendMediaUnsupportedType(t *testing.T) {
	c := botapi.New("tok").WithBaseURL("http://127.0.0.1:0")
	if _, err := c.SendPhoto(context.Background(), 7, 12345, nil); err == nil {
		t.Fatal("expected error for unsupported media type")
	}
}

func TestRequestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  429,
			"description": "Too Many Requests: retry after 3",
			"parameters":  map[string]any{"retry_after": 3},
		})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	_, err := c.GetMe(context.Background())

	var apiErr *botapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 429 || apiErr.Code != 429 || apiErr.RetryAfter != 3 {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Method != "getMe" {
		t.Errorf("method = %q", apiErr.Method)
	}
}

func TestRequestOKFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Bad Request: chat not found"})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	_, err := c.GetChat(context.Background(), 1)

	var apiErr *botapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if !strings.Contains(apiErr.Error(), "chat not found") {
		t.Errorf("error = %q", apiErr.Error())
	}
}

func TestRequestNon2xxWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	_, err := c.GetMe(context.Background())

	var apiErr *botapi.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Description != "Bad Gateway" {
		t.Errorf("description = %q", apiErr.Description)
	}
}

func TestRequestErrorHidesToken(t *testing.T) {
	c := botapi.New("secret-token").WithBaseURL("http://127.0.0.1:1")
	_, err := c.GetMe(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestGetUpdatesDecodesEnvelopes(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"ok":true,"result":[{"update_id":5,"message":{"text":"a"}},{"update_id":6,"poll":{"id":"p"}}]}`)
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	updates, err := c.GetUpdates(context.Background(), 5, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["offset"] != float64(5) || gotBody["timeout"] != float64(100) {
		t.Errorf("body = %v", gotBody)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if id, _ := updates[1].UpdateID(); id != 6 {
		t.Errorf("update_id = %d, want 6", id)
	}
}

func TestSetWebhookWithCertificate(t *testing.T) {
	var url, cert string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		url = r.FormValue("url")
		if f, _, err := r.FormFile("certificate"); err == nil {
			data, _ := io.ReadAll(f)
			cert = string(data)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	pem := botapi.FileReader("cert.pem", strings.NewReader("PEM"))
	if _, err := c.SetWebhook(context.Background(), "https://example.com/bot/webhook", &pem, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://example.com/bot/webhook" || cert != "PEM" {
		t.Errorf("url = %q cert = %q", url, cert)
	}
}

func TestReplaceStickerInSet(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	sticker := botapi.Params{"sticker": "CAACnew", "format": "static", "emoji_list": []string{"😀"}}
	if _, err := c.ReplaceStickerInSet(context.Background(), 42, "pack_by_bot", "CAACold", sticker, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/bottok/replaceStickerInSet" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["old_sticker"] != "CAACold" || gotBody["name"] != "pack_by_bot" || gotBody["user_id"] != float64(42) {
		t.Errorf("body = %v", gotBody)
	}
	if s, _ := gotBody["sticker"].(map[string]any); s["sticker"] != "CAACnew" {
		t.Errorf("sticker = %v", gotBody["sticker"])
	}
}

func TestSetStickerSetThumbnail(t *testing.T) {
	var fields map[string]string
	var thumb string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields = map[string]string{}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.ParseMultipartForm(1 << 20)
			for k, v := range r.MultipartForm.Value {
				fields[k] = v[0]
			}
			if f, _, err := r.FormFile("thumbnail"); err == nil {
				data, _ := io.ReadAll(f)
				thumb = string(data)
			}
		} else {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			for k, v := range body {
				if s, ok := v.(string); ok {
					fields[k] = s
				}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer srv.Close()

	c := botapi.New("tok").WithBaseURL(srv.URL)
	ctx := context.Background()

	upload := botapi.FileReader("thumb.webp", strings.NewReader("webpbytes"))
	if _, err := c.SetStickerSetThumbnail(ctx, "pack_by_bot", 42, "static", upload, nil); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if thumb != "webpbytes" || fields["name"] != "pack_by_bot" || fields["format"] != "static" {
		t.Errorf("upload fields = %v thumb = %q", fields, thumb)
	}

	if _, err := c.SetStickerSetThumbnail(ctx, "pack_by_bot", 42, "static", "CAACthumb", nil); err != nil {
		t.Fatalf("file_id: %v", err)
	}
	if fields["thumbnail"] != "CAACthumb" {
		t.Errorf("thumbnail = %q", fields["thumbnail"])
	}

	if _, err := c.SetStickerSetThumbnail(ctx, "pack_by_bot", 42, "static", 7, nil); err == nil {
		t.Error("expected error for unsupported thumbnail type")
	}
}
