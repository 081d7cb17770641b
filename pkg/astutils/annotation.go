package astutils

type (
	Annotation    string
	AnnotationKey string
)

func (a Annotation) String() string { return string(a) }

// Name returns the annotation without its leading @.
func (a Annotation) Name() string { return string(a)[1:] }

const (
	// CommentProxy for struct while comment @Proxy generate a proxy implementing the named interface
	CommentProxy = Annotation("@Proxy")
	// CommentPointcut for struct, struct method or interface method declares the aspects woven around it
	CommentPointcut = Annotation("@Pointcut")
	// CommentAspect for aspect type while comment @Aspect("name") binds a custom annotation to an aspect name
	CommentAspect = Annotation("@Aspect")

	// CommentKeyDefault key for positional comment params
	CommentKeyDefault = AnnotationKey("default")
	// CommentKeyAbstract interface the @Proxy implements, same as the positional param
	CommentKeyAbstract = AnnotationKey("abstract")
	// CommentKeySuffix proxy type name suffix, "Proxy" by default
	CommentKeySuffix = AnnotationKey("suffix")
	// CommentKeyCustom custom annotation name of an @Aspect
	CommentKeyCustom = AnnotationKey("custom")
)

var (
	allAnnotationKey = map[AnnotationKey]struct{}{
		CommentKeyDefault:  {},
		CommentKeyAbstract: {},
		CommentKeySuffix:   {},
		CommentKeyCustom:   {},
	}
	systemAnnotation = map[Annotation]struct{}{
		CommentProxy:    {},
		CommentPointcut: {},
		CommentAspect:   {},
	}
)

func IsSystemAnnotation(anno Annotation) bool {
	_, ok := systemAnnotation[anno]
	return ok
}

func IsSystemAnnotationKey(key AnnotationKey) bool {
	_, ok := allAnnotationKey[key]
	return ok
}
