package config

// Interceptor wraps session components. Plugin returns either target itself
// or a value that decorates it.
type Interceptor interface {
	Plugin(target any) any
}

// InterceptorFactory creates an interceptor from the properties declared
// on its <plugin> element.
type InterceptorFactory func(props map[string]string) (Interceptor, error)

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(target any) any

// Plugin calls f(target).
func (f InterceptorFunc) Plugin(target any) any { return f(target) }

// InterceptorChain applies interceptors in registration order.
type InterceptorChain struct {
	interceptors []Interceptor
	names        []string
}

// PluginAll passes target through every interceptor, first registered first.
func (c *InterceptorChain) PluginAll(target any) any {
	for _, i := range c.interceptors {
		target = i.Plugin(target)
	}

	return target
}

// Interceptors returns the chain entries in order.
func (c *InterceptorChain) Interceptors() []Interceptor {
	return append([]Interceptor(nil), c.interceptors...)
}

// Names returns the registry name of every entry, in order.
func (c *InterceptorChain) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of interceptors.
func (c *InterceptorChain) Len() int {
	return len(c.interceptors)
}

func (c *InterceptorChain) add(name string, i Interceptor) {
	c.interceptors = append(c.interceptors, i)
	c.names = append(c.names, name)
}
