package backups

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Form field names, as submitted by the integration form.
const (
	FieldName            = "name"
	FieldBackupsToRetain = "backupsToRetain"
	FieldBucket          = "bucket"
	FieldObjectPrefix    = "objectPrefix"
	FieldRegion          = "region"
	FieldEndpoint        = "endpoint"
	FieldUseIAM          = "useIam"
	FieldAccessKeyID     = "accessKeyId"
	FieldSecretAccessKey = "secretAccessKey"
	FieldUseWorkloadID   = "useWorkloadId"
	FieldServiceAccount  = "serviceAccount"
)

var fieldLabels = map[string]string{
	FieldName:            "Integration name",
	FieldBackupsToRetain: "Backups to retain",
	FieldBucket:          "Bucket",
	FieldObjectPrefix:    "Object prefix",
	FieldRegion:          "Region",
	FieldEndpoint:        "Endpoint",
	FieldUseIAM:          "Use container IAM role",
	FieldAccessKeyID:     "Access key ID",
	FieldSecretAccessKey: "Secret access key",
	FieldUseWorkloadID:   "Use workload identity",
	FieldServiceAccount:  "Service account (JSON)",
}

// Validation messages.
const (
	MsgNameRequired            = "Integration name is required"
	MsgRetainRequired          = "Number of backups to keep is required"
	MsgRetainMin               = "Number of backups to keep must be 1 or greater"
	MsgBucketRequired          = "Bucket is required"
	MsgRegionRequired          = "Region is required"
	MsgAccessKeyIDRequired     = "An access key ID is required"
	MsgSecretAccessKeyRequired = "A secret access key is required"
	MsgServiceAccountJSON      = "Valid JSON is required for service account"
)

// FieldLabel returns the display label of a form field.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// Fields returns the form fields of kind in display order.
func Fields(kind string) []string {
	switch kind {
	case KindS3:
		return []string{FieldName, FieldBackupsToRetain, FieldBucket, FieldObjectPrefix, FieldRegion, FieldEndpoint, FieldUseIAM, FieldAccessKeyID, FieldSecretAccessKey}
	case KindGCS:
		return []string{FieldName, FieldBackupsToRetain, FieldBucket, FieldObjectPrefix, FieldUseWorkloadID, FieldServiceAccount}
	default:
		return nil
	}
}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, FieldLabel(field)+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

// Form is the raw input of the integration form. Text fields hold exactly
// what was typed.
type Form struct {
	Name            string
	BackupsToRetain string
	Bucket          string
	ObjectPrefix    string
	Region          string
	Endpoint        string
	UseIAM          bool
	AccessKeyID     string
	SecretAccessKey string
	UseWorkloadID   bool
	ServiceAccount  string
}

// NewForm returns the initial create form.
func NewForm() Form {
	return Form{BackupsToRetain: strconv.Itoa(DefaultBackupsToRetain)}
}

// FormFromConfig returns the edit form of a stored config. Secrets are left
// blank and kept on save unless replaced.
func FormFromConfig(cfg Config) Form {
	return Form{
		Name:            cfg.Name,
		BackupsToRetain: strconv.Itoa(cfg.BackupsToRetain),
		Bucket:          cfg.Bucket,
		ObjectPrefix:    cfg.ObjectPrefix,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		UseIAM:          cfg.UseIAM,
		AccessKeyID:     cfg.AccessKeyID,
		UseWorkloadID:   cfg.UseWorkloadID,
	}
}

// FormFromValues reads a submitted form.
func FormFromValues(values url.Values) Form {
	return Form{
		Name:            values.Get(FieldName),
		BackupsToRetain: values.Get(FieldBackupsToRetain),
		Bucket:          values.Get(FieldBucket),
		ObjectPrefix:    values.Get(FieldObjectPrefix),
		Region:          values.Get(FieldRegion),
		Endpoint:        values.Get(FieldEndpoint),
		UseIAM:          checked(values.Get(FieldUseIAM)),
		AccessKeyID:     values.Get(FieldAccessKeyID),
		SecretAccessKey: values.Get(FieldSecretAccessKey),
		UseWorkloadID:   checked(values.Get(FieldUseWorkloadID)),
		ServiceAccount:  values.Get(FieldServiceAccount),
	}
}

func checked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Value returns the raw text of field.
func (f Form) Value(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldBackupsToRetain:
		return f.BackupsToRetain
	case FieldBucket:
		return f.Bucket
	case FieldObjectPrefix:
		return f.ObjectPrefix
	case FieldRegion:
		return f.Region
	case FieldEndpoint:
		return f.Endpoint
	case FieldAccessKeyID:
		return f.AccessKeyID
	case FieldSecretAccessKey:
		return f.SecretAccessKey
	case FieldServiceAccount:
		return f.ServiceAccount
	default:
		return ""
	}
}

// Checked returns the state of a checkbox field.
func (f Form) Checked(field string) bool {
	switch field {
	case FieldUseIAM:
		return f.UseIAM
	case FieldUseWorkloadID:
		return f.UseWorkloadID
	default:
		return false
	}
}

// Disabled reports whether field is switched off by another input.
func (f Form) Disabled(field string) bool {
	switch field {
	case FieldAccessKeyID, FieldSecretAccessKey:
		return f.UseIAM
	case FieldServiceAccount:
		return f.UseWorkloadID
	default:
		return false
	}
}

// Validate checks f for kind. Whitespace-only input counts as blank. When
// stored is non-nil, blank secret fields are accepted if stored already
// holds that secret.
func (f Form) Validate(kind string, stored *Config) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = MsgNameRequired
	}
	if _, msg := parseRetain(f.BackupsToRetain); msg != "" {
		errs[FieldBackupsToRetain] = msg
	}
	if strings.TrimSpace(f.Bucket) == "" {
		errs[FieldBucket] = MsgBucketRequired
	}

	hasStored := func(field string) bool {
		return stored != nil && stored.HasStoredSecret(field)
	}

	switch kind {
	case KindS3:
		if strings.TrimSpace(f.Region) == "" {
			errs[FieldRegion] = MsgRegionRequired
		}
		if !f.UseIAM {
			if strings.TrimSpace(f.AccessKeyID) == "" && !hasStored(FieldAccessKeyID) {
				errs[FieldAccessKeyID] = MsgAccessKeyIDRequired
			}
			if strings.TrimSpace(f.SecretAccessKey) == "" && !hasStored(FieldSecretAccessKey) {
				errs[FieldSecretAccessKey] = MsgSecretAccessKeyRequired
			}
		}
	case KindGCS:
		if !f.UseWorkloadID {
			sa := strings.TrimSpace(f.ServiceAccount)
			if sa == "" {
				if !hasStored(FieldServiceAccount) {
					errs[FieldServiceAccount] = MsgServiceAccountJSON
				}
			} else if !json.Valid([]byte(sa)) {
				errs[FieldServiceAccount] = MsgServiceAccountJSON
			}
		}
	}
	return errs
}

// Config converts a valid form into a configuration. Blank secrets fall
// back to stored when it is non-nil.
func (f Form) Config(kind string, stored *Config) (Config, FieldErrors) {
	if errs := f.Validate(kind, stored); len(errs) > 0 {
		return Config{}, errs
	}
	retain, _ := parseRetain(f.BackupsToRetain)
	cfg := Config{
		Name:            f.Name,
		BackupsToRetain: retain,
		Bucket:          f.Bucket,
		ObjectPrefix:    f.ObjectPrefix,
		Region:          f.Region,
		Endpoint:        f.Endpoint,
		UseIAM:          f.UseIAM,
		AccessKeyID:     f.AccessKeyID,
		SecretAccessKey: f.SecretAccessKey,
		UseWorkloadID:   f.UseWorkloadID,
		ServiceAccount:  f.ServiceAccount,
	}
	if stored != nil {
		return Merge(kind, *stored, cfg), nil
	}
	return cfg.Normalized(kind), nil
}

// parseRetain returns the parsed count, or the validation message.
func parseRetain(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, MsgRetainRequired
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, MsgRetainRequired
	}
	if n < 1 {
		return n, MsgRetainMin
	}
	return n, ""
}

// FormState is the validation result and button enablement of a form.
type FormState struct {
	Errors  FieldErrors
	CanTest bool
	CanSave bool
}

// EvaluateForm validates f and decides whether Test and Save are enabled.
// Save requires testedFingerprint to match the configuration f produces.
func EvaluateForm(kind string, f Form, stored *Config, testedFingerprint string) FormState {
	cfg, errs := f.Config(kind, stored)
	state := FormState{Errors: errs, CanTest: len(errs) == 0}
	if state.CanTest && testedFingerprint != "" {
		state.CanSave = Fingerprint(kind, cfg) == testedFingerprint
	}
	if state.Errors == nil {
		state.Errors = FieldErrors{}
	}
	return state
}
