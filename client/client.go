// Package client consumes the storage collaborator's REST boundary. Every
// call is a plain request/response; failures are caught here and come back
// as errors the caller turns into a user-visible state, never as a fault.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/formwiz/form-wizard/model"
)

var (
	// ErrNotFound maps a 404 from the collaborator.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict maps a 409: the collaborator refused the change, e.g.
	// deleting a form that still owns questions.
	ErrConflict = errors.New("refused by the storage collaborator")
)

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "%s %s", method, path)
	case resp.StatusCode == http.StatusConflict:
		return errors.Wrapf(ErrConflict, "%s %s", method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "%s %s: decode response", method, path)
		}
	}
	return nil
}

// Form lifecycle.

func (c *Client) Forms(ctx context.Context) ([]model.FormRecord, error) {
	var forms []model.FormRecord
	err := c.do(ctx, http.MethodGet, "/form/getAll", nil, &forms)
	return forms, err
}

func (c *Client) FormWithQuestions(ctx context.Context, formID int) (model.FormRecord, error) {
	var form model.FormRecord
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/form/getFormWithQuestions/%d", formID), nil, &form)
	return form, err
}

func (c *Client) CreateForm(ctx context.Context, rec model.FormRecord) (int, error) {
	var created struct {
		ID int `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/form/create", rec, &created)
	return created.ID, err
}

func (c *Client) UpdateForm(ctx context.Context, rec model.FormRecord) error {
	return c.do(ctx, http.MethodPut, "/form/update", rec, nil)
}

func (c *Client) HideForm(ctx context.Context, formID int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/form/hide/%d", formID), nil, nil)
}

func (c *Client) ShowForm(ctx context.Context, formID int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/form/show/%d", formID), nil, nil)
}

// DeleteForm fails with ErrConflict while the form still owns questions.
func (c *Client) DeleteForm(ctx context.Context, formID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/form/delete/%d", formID), nil, nil)
}

// Question lifecycle.

func (c *Client) CreateQuestion(ctx context.Context, rec model.QuestionRecord) (int, error) {
	var created struct {
		ID int `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/question/create", rec, &created)
	return created.ID, err
}

func (c *Client) UpdateQuestion(ctx context.Context, rec model.QuestionRecord) error {
	return c.do(ctx, http.MethodPut, "/question/update", rec, nil)
}

// DeleteQuestion fails with ErrConflict while responses reference the
// question.
func (c *Client) DeleteQuestion(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/question/delete/%d", id), nil, nil)
}

func (c *Client) QuestionsByForm(ctx context.Context, formID int) ([]model.QuestionRecord, error) {
	var questions []model.QuestionRecord
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/question/getByForm/%d", formID), nil, &questions)
	return questions, err
}

func (c *Client) SubmitAllQuestions(ctx context.Context, recs []model.QuestionRecord) error {
	return c.do(ctx, http.MethodPost, "/question/submitAll", recs, nil)
}

// SubmitAnswers persists a completed submission.
func (c *Client) SubmitAnswers(ctx context.Context, sub model.SubmissionRecord) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/form/submitAnswers/%d", sub.FormID), sub, nil)
}
