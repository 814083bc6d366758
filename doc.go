// Package props exposes layered property sources through typed accessors.
//
// A Store is an ordered list of layers (runtime overrides, environment, files,
// defaults) where the first layer defining a key wins. A Schema declares the
// accessors of a configuration interface; a View binds a schema to a store and
// resolves each accessor by looking up its key, decrypting, expanding ${key}
// references, applying call-time format arguments and converting the result to
// the declared type.
//
// Nested accessors return a View over a derived store: arguments passed to the
// accessor (one or more mappings, or a single list of mappings) are stacked
// above the parent's layers without modifying them.
//
// Option catalog:
//   - Conversion: WithConverters, WithConverterOptions (WithConversion, WithRule,
//     WithFactory, WithEnum).
//   - Secrets: WithDecryptor.
//   - Diagnostics: WithResolutionLogger, WithEvaluatorLogger, WithZapLogger,
//     WithActivityHooks, WithActivityChannel.
//   - Rules: WithEvaluator, WithProgramCache, WithFunctionRegistry,
//     WithCustomFunction, WithConversionFunctions.
//
// Schemas are built by hand with NewSchema, Leaf and Nested, or from struct
// tags with SchemaOf. Decode and Load hydrate such a struct from a view.
package props
