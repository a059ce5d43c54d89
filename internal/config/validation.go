package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"unifiedfs/internal/provider"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks struct tags and the rules tags cannot express.
// Malformed top_dirs records are not rejected here: the provider logs and
// skips them individually.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	base := cfg.Provider.BaseDir
	usesDataDir := base == provider.BaseDirFiles || base == provider.BaseDirData
	if usesDataDir && cfg.Provider.DataDir == "" {
		return fmt.Errorf("provider.data_dir: required when base_dir is %s", base)
	}
	if cfg.Provider.DataDir != "" && !filepath.IsAbs(cfg.Provider.DataDir) {
		return fmt.Errorf("provider.data_dir: must be an absolute path, got %q", cfg.Provider.DataDir)
	}

	for ext := range cfg.Provider.MimeTypes {
		if strings.ContainsAny(ext, "/ ") {
			return fmt.Errorf("provider.mime_types: bad extension %q", ext)
		}
	}

	if cfg.Mount.Point != "" && !filepath.IsAbs(cfg.Mount.Point) {
		return fmt.Errorf("mount.point: must be an absolute path, got %q", cfg.Mount.Point)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
