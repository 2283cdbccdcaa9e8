package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator 基于 go-playground/validator 的配置校验器
// 支持标准 tag: required、min/max、oneof、url、email、gtefield 等
type Validator struct {
	validate *validator.Validate
}

// NewValidator 创建校验器
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate 校验整个配置结构体
func (v *Validator) Validate(cfg any) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := v.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, describeErrors(err))
	}
	return nil
}

// ValidateField 用 tag 表达式校验单个值，如 ValidateField(n, "min=0,max=100")
func (v *Validator) ValidateField(field any, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return fmt.Errorf("%w: %s", ErrValidationFailed, describeErrors(err))
	}
	return nil
}

// ValidateWithCustom 先注册自定义规则再校验
func (v *Validator) ValidateWithCustom(cfg any, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register custom validation %s: %w", tag, err)
		}
	}
	return v.Validate(cfg)
}

// describeErrors 把 validator 的错误翻译成可读消息
func describeErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field, tag, param := fe.Field(), fe.Tag(), fe.Param()
		switch tag {
		case "required":
			parts = append(parts, fmt.Sprintf("field '%s' is required", field))
		case "min":
			parts = append(parts, fmt.Sprintf("field '%s' must be at least %s", field, param))
		case "max":
			parts = append(parts, fmt.Sprintf("field '%s' must be at most %s", field, param))
		case "oneof":
			parts = append(parts, fmt.Sprintf("field '%s' must be one of [%s]", field, param))
		case "email":
			parts = append(parts, fmt.Sprintf("field '%s' must be a valid email", field))
		case "url":
			parts = append(parts, fmt.Sprintf("field '%s' must be a valid URL", field))
		case "gte":
			parts = append(parts, fmt.Sprintf("field '%s' must be >= %s", field, param))
		case "lte":
			parts = append(parts, fmt.Sprintf("field '%s' must be <= %s", field, param))
		case "gtefield":
			parts = append(parts, fmt.Sprintf("field '%s' must be >= field %s", field, param))
		default:
			parts = append(parts, fmt.Sprintf("field '%s' failed rule '%s'", field, tag))
		}
	}
	return strings.Join(parts, "; ")
}
