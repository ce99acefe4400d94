// Package session builds session factories from configuration documents.
//
// A Builder reads one Source (a character stream, a byte stream or an
// already built configuration) and compiles it into a frozen
// config.Configuration:
//
//	b := session.NewBuilder(session.Options{Resources: os.DirFS("conf")})
//	f, err := b.BuildFile(ctx, "conf/mybatis-config.xml", "", nil)
//	if err != nil {
//		return err
//	}
//	s := f.OpenSession()
//	ms, err := s.Statement("selectBlog")
//
// Every stream handed to the builder is closed before Build returns. A
// failed build returns a *BuildError carrying the location the compiler had
// reached; it never returns a partial configuration.
//
// FactoryCache shares factories between callers asking for the same input.
package session
