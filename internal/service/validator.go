package service

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/jisap/threads-clone/internal/config"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
)

// Validator checks user supplied text against the configured bounds.
type Validator struct {
	Cfg config.Validation
}

func NewValidator(cfg config.Validation) *Validator {
	return &Validator{Cfg: cfg}
}

func (v *Validator) length(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < minLen {
		return internal_errors.BadRequest(fmt.Sprintf("%s must be at least %d characters", field, minLen))
	}
	if maxLen > 0 && n > maxLen {
		return internal_errors.BadRequest(fmt.Sprintf("%s must be at most %d characters", field, maxLen))
	}
	return nil
}

func (v *Validator) ThreadText(text string) error {
	return v.length("Thread", text, v.Cfg.ThreadTextMinLen, v.Cfg.ThreadTextMaxLen)
}

func (v *Validator) CommentText(text string) error {
	return v.length("Comment", text, 1, v.Cfg.ThreadTextMaxLen)
}

func (v *Validator) Name(name string) error {
	return v.length("Name", name, v.Cfg.NameMinLen, v.Cfg.NameMaxLen)
}

func (v *Validator) Username(username string) error {
	if err := v.length("Username", username, v.Cfg.NameMinLen, v.Cfg.NameMaxLen); err != nil {
		return err
	}
	if strings.ContainsAny(username, " \t\n/") {
		return internal_errors.BadRequest("Username must not contain spaces or slashes")
	}
	return nil
}

func (v *Validator) Bio(bio string) error {
	return v.length("Bio", bio, v.Cfg.NameMinLen, v.Cfg.BioMaxLen)
}

// Image accepts absolute http(s) URLs and site-relative paths.
func (v *Validator) Image(image string) error {
	if image == "" {
		return internal_errors.BadRequest("Profile photo is required")
	}
	if strings.HasPrefix(image, "/") && !strings.HasPrefix(image, "//") {
		return nil
	}
	u, err := url.Parse(image)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return internal_errors.BadRequest("Profile photo must be a valid URL")
	}
	return nil
}
