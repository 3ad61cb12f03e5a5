package apiclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/survey"
	"github.com/tidwall/gjson"
)

const imagesPath = "/admin/images"

// ListImages returns the images attached to a site. Anything other than an
// array of images is treated as no images.
func (c *Client) ListImages(ctx context.Context, county, siteName string) ([]survey.Image, error) {
	res, err := c.Request(ctx, Descriptor{
		Name:   "images.list",
		Method: http.MethodGet,
		Path:   imagesPath + "/read",
		Query:  url.Values{"county": {county}, "siteName": {siteName}},
	})
	if err != nil {
		return nil, err
	}
	if err := checkShape(res, "images", imageListSchema); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("unexpected image list response")
		return []survey.Image{}, nil
	}
	var images []survey.Image
	if err := res.Decode(&images); err != nil {
		return nil, err
	}
	return images, nil
}

// CreateImage registers a new image and returns the presigned URL its bytes
// must be uploaded to.
func (c *Client) CreateImage(ctx context.Context, ref survey.ImageRef) (string, error) {
	return c.presign(ctx, "images.create", http.MethodPost, imagesPath+"/create", ref)
}

// EditImage returns a presigned URL that replaces an existing image.
func (c *Client) EditImage(ctx context.Context, ref survey.ImageRef) (string, error) {
	return c.presign(ctx, "images.update", http.MethodPut, imagesPath+"/update", ref)
}

func (c *Client) presign(ctx context.Context, name, method, path string, ref survey.ImageRef) (string, error) {
	if err := survey.ValidateImageRef(ref); err != nil {
		return "", err
	}
	res, err := c.Request(ctx, Descriptor{Name: name, Method: method, Path: path, Body: ref})
	if err != nil {
		return "", err
	}
	if err := checkShape(res, "presigned", presignedSchema); err != nil {
		return "", ErrResponseShape.MsgErr("Failed to get upload URL", err)
	}
	return gjson.GetBytes(res.JSON(), "presignedUrl").String(), nil
}

// DeleteImages removes the referenced images.
func (c *Client) DeleteImages(ctx context.Context, refs []survey.ImageRef) error {
	for _, ref := range refs {
		if err := survey.ValidateImageRef(ref); err != nil {
			return err
		}
	}
	_, err := c.Request(ctx, Descriptor{
		Name:   "images.delete",
		Method: http.MethodDelete,
		Path:   imagesPath + "/delete",
		Body:   map[string]any{"images": refs},
	})
	return err
}

// Upload PUTs r to a presigned URL. The URL carries its own authorization, so
// no bearer token is sent. A PUT to the same object key is idempotent, so
// transport failures and 5xx answers are retried with backoff.
func (c *Client) Upload(ctx context.Context, presignedURL, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return ErrInvalidRequest.MsgErr("unable to read upload", err)
	}
	return retry.Do(func() error {
		return c.putObject(ctx, presignedURL, contentType, data)
	},
		retry.Context(ctx),
		retry.Attempts(c.uploadAttempts),
		retry.Delay(c.uploadDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			k := KindOf(err)
			return k == KindNetwork || k == KindServerError
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("retrying presigned upload")
		}),
	)
}

func (c *Client) putObject(ctx context.Context, presignedURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(data))
	if err != nil {
		return retry.Unrecoverable(ErrInvalidRequest.MsgErr("invalid upload url", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(KindNetwork, 0, networkMessage(err), err)
	}
	defer rsp.Body.Close()
	_, _ = io.Copy(io.Discard, rsp.Body)
	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		kind := kindForStatus(rsp.StatusCode)
		if rsp.StatusCode >= 500 {
			kind = KindServerError
		}
		return newError(kind, rsp.StatusCode, "Failed to upload file to presigned URL", nil)
	}
	return nil
}

// UploadImage creates an image entry and uploads its bytes.
func (c *Client) UploadImage(ctx context.Context, ref survey.ImageRef, contentType string, r io.Reader) error {
	u, err := c.CreateImage(ctx, ref)
	if err != nil {
		return err
	}
	return c.Upload(ctx, u, contentType, r)
}

// ReplaceImage uploads new bytes for an existing image.
func (c *Client) ReplaceImage(ctx context.Context, ref survey.ImageRef, contentType string, r io.Reader) error {
	u, err := c.EditImage(ctx, ref)
	if err != nil {
		return err
	}
	if err := c.Upload(ctx, u, contentType, r); err != nil {
		var e *Error
		if errors.As(err, &e) && e.StatusCode != 0 {
			e.Message = "Failed to upload edited file"
		}
		return err
	}
	return nil
}
