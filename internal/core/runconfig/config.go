// Package runconfig is the flat run record loaded from a user YAML file
// merged over a defaults file
//
// Every field is optional; a nil pointer means the key was absent or blank.
// Validity is checked later by the environment validation step, never here
package runconfig

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	perr "hydroflow/internal/platform/errors"
)

// Config is the run record
type Config struct {
	Lat                *float64 `yaml:"LAT,omitempty" json:"LAT,omitempty" validate:"required,gte=-90,lte=90"`
	Lon                *float64 `yaml:"LON,omitempty" json:"LON,omitempty" validate:"required,gte=-180,lte=180"`
	BBoxSizeKm         *float64 `yaml:"BBOX_SIZE_KM,omitempty" json:"BBOX_SIZE_KM,omitempty" validate:"required,gt=0"`
	SiteName           *string  `yaml:"SITE_NAME,omitempty" json:"SITE_NAME,omitempty" validate:"required"`
	TargetEPSG         *int     `yaml:"EPSG_CIBLE,omitempty" json:"EPSG_CIBLE,omitempty" validate:"required,gt=0"`
	NoDataValue        *float64 `yaml:"NODATA_VALUE,omitempty" json:"NODATA_VALUE,omitempty" validate:"required"`
	StreamThresholdKm2 *float64 `yaml:"STREAM_THRESHOLD_KM2,omitempty" json:"STREAM_THRESHOLD_KM2,omitempty" validate:"required,gte=0"`

	GrassGISBase *string `yaml:"GRASS_GISBASE,omitempty" json:"GRASS_GISBASE,omitempty" validate:"required,dir"`
	GrassCmd     *string `yaml:"GRASS_CMD,omitempty" json:"GRASS_CMD,omitempty" validate:"omitempty,file"`
	QGISPath     *string `yaml:"QGIS_PATH,omitempty" json:"QGIS_PATH,omitempty"`
	GDALWarpCmd  *string `yaml:"GDALWARP_CMD,omitempty" json:"GDALWARP_CMD,omitempty" validate:"required,file"`
	GDALDataExt  *string `yaml:"GDAL_DATA_EXT,omitempty" json:"GDAL_DATA_EXT,omitempty" validate:"required,dir"`
	ProjLibExt   *string `yaml:"PROJ_LIB_EXT,omitempty" json:"PROJ_LIB_EXT,omitempty" validate:"required,dir"`
	GDALBinExt   *string `yaml:"GDAL_BIN_EXT,omitempty" json:"GDAL_BIN_EXT,omitempty" validate:"required,dir"`

	OutputDir  *string `yaml:"OUTPUT_DIR,omitempty" json:"OUTPUT_DIR,omitempty" validate:"required"`
	TempDir    *string `yaml:"TEMP_DIR,omitempty" json:"TEMP_DIR,omitempty" validate:"required"`
	GrassDBDir *string `yaml:"GRASS_DB_DIR,omitempty" json:"GRASS_DB_DIR,omitempty" validate:"required"`

	OpenTopographyAPIKey *string `yaml:"OPENTOPOGRAPHY_API_KEY,omitempty" json:"-" validate:"required"`
	DevMode              *bool   `yaml:"DEV_MODE,omitempty" json:"DEV_MODE,omitempty"`
}

// Keys lists the YAML keys in declaration order
func Keys() []string {
	t := reflect.TypeOf(Config{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, yamlKey(t.Field(i)))
	}
	return out
}

func yamlKey(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	return name
}

// Decode builds a Config from a merged key/value map
// Unknown keys and values that cannot be coerced to the field kind are
// ErrorCodeConfig errors carrying the key as field
func Decode(m map[string]any) (Config, error) {
	var cfg Config
	v := reflect.ValueOf(&cfg).Elem()
	t := v.Type()

	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		index[yamlKey(t.Field(i))] = i
	}

	for _, k := range sortedKeys(m) {
		i, ok := index[k]
		if !ok {
			return Config{}, perr.WithField(perr.Configf("unknown configuration key %q", k), k)
		}
		raw := m[k]
		if !IsSet(raw) {
			continue
		}
		fv := v.Field(i)
		elem := reflect.New(fv.Type().Elem())
		if err := coerce(raw, elem.Elem()); err != nil {
			return Config{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfig, "invalid value for %s", k), k)
		}
		fv.Set(elem)
	}
	return cfg, nil
}

// coerce assigns raw (a YAML scalar) to dst of kind float64, int, string or bool
func coerce(raw any, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Float64:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Int:
		f, err := toFloat(raw)
		if err != nil {
			return err
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return fmt.Errorf("%v is not an integer", raw)
		}
		dst.SetInt(int64(f))
	case reflect.String:
		switch x := raw.(type) {
		case string:
			dst.SetString(x)
		case int, int64, uint64, float64, bool:
			dst.SetString(fmt.Sprint(x))
		default:
			return fmt.Errorf("expected a scalar, got %T", raw)
		}
	case reflect.Bool:
		b, err := toBool(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", dst.Kind())
	}
	return nil
}

func toFloat(raw any) (float64, error) {
	switch x := raw.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

func toBool(raw any) (bool, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case int:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("expected a boolean, got %v", raw)
}

// Encode flattens cfg back into a key/value map, skipping nil and blank fields
func Encode(cfg Config) map[string]any {
	out := map[string]any{}
	v := reflect.ValueOf(cfg)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := v.Field(i)
		if fv.IsNil() {
			continue
		}
		val := fv.Elem().Interface()
		if IsSet(val) {
			out[yamlKey(t.Field(i))] = val
		}
	}
	return out
}

// Str returns *p or "" for nil
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Float returns *p or def for nil
func Float(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Int returns *p or def for nil
func Int(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Bool returns *p or false for nil
func Bool(p *bool) bool { return p != nil && *p }

// Ptr returns a pointer to v
func Ptr[T any](v T) *T { return &v }
