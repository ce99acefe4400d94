// Package builder compiles a decoded configuration document into a
// config.Configuration.
//
// ConfigBuilder runs the configuration stages in a fixed order: properties,
// settings, type aliases and handlers, environments, plugins and mappers.
// Each stage may only reference names bound by an earlier one. Mapper
// documents are compiled in two passes: caches, fragments and result maps
// first, statements second, so a statement may include a fragment declared
// later in the same document.
//
// A build either returns a complete configuration or an error; the
// configuration under construction never escapes a failed build.
package builder
