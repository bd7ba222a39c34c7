package error

// GenericError es el contrato de los errores que la capa REST sabe
// traducir a una respuesta HTTP.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
