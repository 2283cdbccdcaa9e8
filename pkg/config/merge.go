package config

import (
	"fmt"
	"reflect"
)

// MergeConfig 把 src 的非零字段覆盖进 dst，返回合并结果
// 规则:
//   - dst 与 src 同时为 nil 时报错
//   - 任一为 nil 时返回另一个
//   - src 的零值字段不覆盖 dst，结构体逐字段递归，map 按 key 合并，切片整体替换
//   - 非 nil 的标量指针整体覆盖，可用 *bool 表达显式关闭
func MergeConfig[T any](dst, src *T) (*T, error) {
	if dst == nil && src == nil {
		return nil, fmt.Errorf("both dst and src cannot be nil")
	}
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}

	if err := mergeInto(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()); err != nil {
		return nil, err
	}
	return dst, nil
}

func mergeInto(dst, src reflect.Value) error {
	if !src.IsValid() || isEmpty(src) {
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		srcType := src.Type()
		for i := 0; i < src.NumField(); i++ {
			ft := srcType.Field(i)
			if !ft.IsExported() {
				continue
			}
			dstField := dst.FieldByName(ft.Name)
			if !dstField.IsValid() || !dstField.CanSet() {
				continue
			}
			if err := mergeInto(dstField, src.Field(i)); err != nil {
				return fmt.Errorf("merge field %s: %w", ft.Name, err)
			}
		}
		return nil

	case reflect.Map:
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		iter := src.MapRange()
		for iter.Next() {
			key, srcVal := iter.Key(), iter.Value()
			if existing := dst.MapIndex(key); existing.IsValid() {
				merged := reflect.New(dst.Type().Elem()).Elem()
				merged.Set(existing)
				if err := mergeInto(merged, srcVal); err != nil {
					return err
				}
				dst.SetMapIndex(key, merged)
			} else {
				dst.SetMapIndex(key, srcVal)
			}
		}
		return nil

	case reflect.Slice:
		// 切片不做元素级合并，整体替换
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil

	case reflect.Ptr:
		if src.IsNil() {
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		// 非 nil 指针视为显式赋值: 结构体继续逐字段合并，
		// 标量整体覆盖，这样 *bool 才能表达"显式关闭"
		if dst.Type().Elem().Kind() == reflect.Struct {
			return mergeInto(dst.Elem(), src.Elem())
		}
		dst.Elem().Set(src.Elem())
		return nil

	default:
		if dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// isEmpty 判断值是否视作"未设置"
// 与 reflect.Value.IsZero 的差别: 已分配但为空的 slice/map 同样视作未设置
func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Ptr, reflect.Interface, reflect.Func:
		return v.IsNil()
	case reflect.Struct:
		return v.IsZero()
	default:
		return false
	}
}
