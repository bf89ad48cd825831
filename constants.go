package rmarshal

// Marshal 4.8 type tags, per spec.md §6.1 plus the supplementary kinds
// described in SPEC_FULL.md §4.1.
const (
	tagNil        = '0'
	tagTrue       = 'T'
	tagFalse      = 'F'
	tagFixnum     = 'i'
	tagSymbol     = ':'
	tagSymlink    = ';'
	tagObjectLink = '@'
	tagString     = '"'
	tagArray      = '['
	tagHash       = '{'
	tagObject     = 'o'
	tagUsrDef     = 'u'
	tagUsrMarshal = 'U'
	tagIvar       = 'I'

	// Supplementary, best-effort tags (SPEC_FULL.md §4.1).
	tagFloat  = 'f'
	tagBignum = 'l'
	tagClass  = 'c'
	tagModule = 'm'
	tagRegexp = '/'
)

// requiredTags is the minimum grammar spec.md §6.1 mandates. Used when
// DecodeOptions.StrictTags is set.
var requiredTags = map[byte]bool{
	tagNil: true, tagTrue: true, tagFalse: true, tagFixnum: true,
	tagSymbol: true, tagSymlink: true, tagObjectLink: true, tagString: true,
	tagArray: true, tagHash: true, tagObject: true, tagUsrDef: true,
	tagUsrMarshal: true, tagIvar: true,
}

// Regexp flags, matching samcday-rmarsh/types.go.
const (
	RegexpIgnoreCase    = 1
	RegexpExtended      = 1 << 1
	RegexpMultiline     = 1 << 2
	RegexpFixedEncoding = 1 << 4
	RegexpNoEncoding    = 1 << 5
)

// marshalMagic is the two-byte Marshal 4.8 file signature (spec.md §6.1).
var marshalMagic = [2]byte{0x04, 0x08}
