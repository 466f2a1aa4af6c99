package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"stockfield/internal/domain/model"

	"github.com/go-playground/validator/v10"
)

// 入力構造体の検証。タグは go-playground/validator の書式。
//
// 追加タグ:
//
//	isodate      YYYY-MM-DD
//	product_kind food/pesticide/other
//	role         regular/admin
//	movement     entry/exit
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーメッセージはjsonの名前で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	mustRegister(v, "product_kind", func(fl validator.FieldLevel) bool {
		_, err := model.ParseProductKind(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "role", func(fl validator.FieldLevel) bool {
		_, err := model.ParseRole(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "movement", func(fl validator.FieldLevel) bool {
		_, err := model.ParseMovementType(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// 最初の違反だけを読める文にして返す
func (x *Validator) Struct(s interface{}) error {
	err := x.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "isodate":
		return field + " must be YYYY-MM-DD"
	case "product_kind", "role", "movement":
		return "invalid " + field
	default:
		return "invalid " + field
	}
}
