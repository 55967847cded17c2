package request

// FormEntry is one named part of a multipart body. The concrete type is one of
// FormField, FormRawFile or FormBinaryFile.
type FormEntry interface {
	formEntry()
}

// FormField is a plain text field.
type FormField struct {
	Value   string
	Charset string
}

// FormRawFile is a text file sent with its name and charset.
type FormRawFile struct {
	Path    string
	Charset string
}

// FormBinaryFile is a file sent verbatim with a guessed content type.
type FormBinaryFile struct {
	Path string
}

func (FormField) formEntry()      {}
func (FormRawFile) formEntry()    {}
func (FormBinaryFile) formEntry() {}
