package env_vars

// SetEnviron replaces the environment source of e.
func SetEnviron(e *Env, vars []string) {
	e.environ = func() []string { return vars }
}
