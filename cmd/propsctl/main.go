package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	props "github.com/goliatone/go-props"
	"github.com/goliatone/go-props/loader"
)

var valueTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"uint":     reflect.TypeFor[uint](),
	"float":    reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"char":     reflect.TypeFor[props.Char](),
	"duration": reflect.TypeFor[time.Duration](),
	"url":      reflect.TypeFor[url.URL](),
	"strings":  reflect.TypeFor[[]string](),
	"ints":     reflect.TypeFor[[]int](),
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "propsctl: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	files     []string
	envPrefix string
	sets      map[string]string
	verbose   bool
}

func run(args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("propsctl", "Inspect layered property files")
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	c := &cli{sets: map[string]string{}}
	app.Flag("file", "Property document (.properties, .yaml, .toml, .json); later files override earlier ones").Short('f').StringsVar(&c.files)
	app.Flag("env-prefix", "Include environment variables with this prefix (APP_WEB_PORT -> web.port)").StringVar(&c.envPrefix)
	app.Flag("set", "Runtime override applied above every other layer").Short('s').StringMapVar(&c.sets)
	app.Flag("verbose", "Log resolution details to stderr").Short('v').BoolVar(&c.verbose)

	getCmd := app.Command("get", "Resolve one key")
	getKey := getCmd.Arg("key", "Property key").Required().String()
	getType := getCmd.Flag("type", "Convert to type: "+strings.Join(typeNames(), ", ")).Default("string").Enum(typeNames()...)
	getDefault := getCmd.Flag("default", "Value used when no layer defines the key").String()
	getNoExpand := getCmd.Flag("no-expand", "Disable ${var} expansion").Bool()
	getArgs := getCmd.Flag("arg", "Format argument applied to the value; repeatable").Strings()

	listCmd := app.Command("list", "Print every effective property")

	traceCmd := app.Command("trace", "Show which layer supplies a key")
	traceKey := traceCmd.Arg("key", "Property key").Required().String()
	traceJSON := traceCmd.Flag("json", "Print the trace as JSON").Bool()

	evalCmd := app.Command("eval", "Evaluate an expression against the properties")
	evalExpr := evalCmd.Arg("expr", "Expression, e.g. props[\"web.port\"] == \"8080\"").Required().String()
	evalEngine := evalCmd.Flag("engine", "Expression engine").Default("expr").Enum("expr", "cel", "js")

	command, err := app.Parse(args)
	if err != nil {
		return err
	}
	if command == "" {
		return nil
	}

	logger, err := newLogger(c.verbose, stderr)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := c.store()
	if err != nil {
		return err
	}
	logger.Debug("store assembled", zap.Int("layers", store.Len()), zap.Strings("files", c.files))

	switch command {
	case getCmd.FullCommand():
		return get(stdout, store, logger, getOptions{
			key:      *getKey,
			typeName: *getType,
			def:      getDefault,
			noExpand: *getNoExpand,
			args:     *getArgs,
		})
	case listCmd.FullCommand():
		return store.List(stdout)
	case traceCmd.FullCommand():
		return trace(stdout, store, *traceKey, *traceJSON)
	case evalCmd.FullCommand():
		return eval(stdout, store, logger, *evalExpr, *evalEngine)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (c *cli) store() (*props.Store, error) {
	var loaders []loader.Loader
	if len(c.sets) > 0 {
		loaders = append(loaders, loader.Func(func() (props.Layer, error) {
			return props.NewLayer(props.NewScope(props.ScopeRuntime, props.WithScopeLabel("Command Line")), props.Properties(c.sets)), nil
		}))
	}
	if c.envPrefix != "" {
		loaders = append(loaders, loader.Env{Prefix: c.envPrefix})
	}
	// Later files override earlier ones, so they go first in the store.
	for i := len(c.files) - 1; i >= 0; i-- {
		loaders = append(loaders, loader.Document{Path: c.files[i]})
	}
	return loader.Store(loaders...)
}

type getOptions struct {
	key      string
	typeName string
	def      *string
	noExpand bool
	args     []string
}

func get(w io.Writer, store *props.Store, logger *zap.Logger, opts getOptions) error {
	accessorOpts := []props.AccessorOption{props.WithKey(opts.key)}
	if opts.def != nil && *opts.def != "" {
		accessorOpts = append(accessorOpts, props.WithDefault(*opts.def))
	}
	if opts.noExpand {
		accessorOpts = append(accessorOpts, props.WithDisabledFeatures(props.FeatureVariableExpansion))
	}
	schema, err := props.NewSchema("propsctl", props.LeafOf("value", valueTypes[opts.typeName], accessorOpts...))
	if err != nil {
		return err
	}
	view := props.New(schema, store, props.WithZapLogger(logger))

	args := make([]any, len(opts.args))
	for i, arg := range opts.args {
		args[i] = arg
	}
	value, err := view.Value("value", args...)
	if err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("%s is not defined", opts.key)
	}
	_, err = fmt.Fprintln(w, render(value))
	return err
}

func render(value any) string {
	switch typed := value.(type) {
	case url.URL:
		return typed.String()
	case []string:
		return strings.Join(typed, ",")
	default:
		return fmt.Sprint(value)
	}
}

func trace(w io.Writer, store *props.Store, key string, asJSON bool) error {
	t := store.Trace(key)
	if asJSON {
		payload, err := t.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SCOPE\tLABEL\tVALUE\tEFFECTIVE\n")
	for _, layer := range t.Layers {
		value := "-"
		if layer.Found {
			value = layer.Value
		}
		marker := ""
		if layer.Effective {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", layer.Scope.Name, layer.Scope.Label, value, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !t.Found {
		return fmt.Errorf("%s is not defined", key)
	}
	return nil
}

func eval(w io.Writer, store *props.Store, logger *zap.Logger, expr, engine string) error {
	schema, err := props.NewSchema("propsctl")
	if err != nil {
		return err
	}
	opts := []props.Option{props.WithZapLogger(logger)}
	switch engine {
	case "cel":
		opts = append(opts, props.WithEvaluator(props.NewCELEvaluator()))
	case "js":
		evaluator := props.NewJSEvaluator()
		if evaluator == nil {
			return fmt.Errorf("js engine not available; rebuild with -tags js_eval")
		}
		opts = append(opts, props.WithEvaluator(evaluator))
	}
	res, err := props.New(schema, store, opts...).Evaluate(expr)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, render(res.Value))
	return err
}

func newLogger(verbose bool, w io.Writer) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core).Named("propsctl"), nil
}

func typeNames() []string {
	names := make([]string, 0, len(valueTypes))
	for name := range valueTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
