package tree

// Attribute is the nonterminal/terminal kind of a node. The original
// source uses a flat integer tag; we follow the teacher's TokenType
// convention (internal/lexer.TokenType) of a named string type instead
// — cheaper to read in a debugger and in test failures, at the cost of
// a few extra bytes per node, which the arena's bump allocation makes
// irrelevant.
type Attribute string

const (
	// Lexical (produced by phase B, consumed by D-G)
	BoldTag    Attribute = "BOLD_TAG"
	Identifier Attribute = "IDENTIFIER_TOKEN"
	Operator   Attribute = "OPERATOR_TOKEN"
	Denotation Attribute = "DENOTATION_TOKEN"
	RowCharDenotation Attribute = "ROW_CHAR_DENOTATION"
	Point      Attribute = "POINT"
	Dotdot     Attribute = "DOTDOT"
	Keyword    Attribute = "KEYWORD"
	Bar        Attribute = "BAR"
	FormatItem Attribute = "FORMAT_ITEM"
	StaticReplicator Attribute = "STATIC_REPLICATOR"
	DynamicReplicator Attribute = "DYNAMIC_REPLICATOR"

	// Declarers (phase G group 1)
	Declarer     Attribute = "DECLARER"
	IndicantDecl Attribute = "INDICANT"
	RefSymbol    Attribute = "REF_SYMBOL"
	FlexSymbol   Attribute = "FLEX_SYMBOL"
	RowSymbol    Attribute = "ROW_SYMBOL"
	ProcSymbol   Attribute = "PROC_SYMBOL"
	OpSymbol     Attribute = "OP_SYMBOL"
	StructSymbol Attribute = "STRUCT_SYMBOL"
	UnionSymbol  Attribute = "UNION_SYMBOL"
	VoidSymbol   Attribute = "VOID_SYMBOL"
	Bounds       Attribute = "BOUNDS"
	FormalBounds Attribute = "FORMAL_BOUNDS"
	FieldList    Attribute = "FIELD_LIST"

	// Primaries / specifications (phase G group 4)
	Call            Attribute = "CALL"
	Slice           Attribute = "SLICE"
	Specification   Attribute = "SPECIFICATION"
	Cast            Attribute = "CAST"
	Assertion       Attribute = "ASSERTION"
	EnclosedClause  Attribute = "ENCLOSED_CLAUSE"
	ClosedClause    Attribute = "CLOSED_CLAUSE"
	CollateralClause Attribute = "COLLATERAL_CLAUSE"
	ConditionalClause Attribute = "CONDITIONAL_CLAUSE"
	CaseClause      Attribute = "CASE_CLAUSE"
	ConformityClause Attribute = "CONFORMITY_CLAUSE"
	LoopClause      Attribute = "LOOP_CLAUSE"
	SerialClause    Attribute = "SERIAL_CLAUSE"
	EnquiryClause   Attribute = "ENQUIRY_CLAUSE"
	Nihil           Attribute = "NIHIL"
	Skip            Attribute = "SKIP"
	Jump            Attribute = "JUMP"
	Label           Attribute = "LABEL"
	Selector        Attribute = "SELECTOR"
	Selection       Attribute = "SELECTION"

	// Secondaries (phase G group 5)
	Generator Attribute = "GENERATOR"

	// Formulae / tertiaries (phase G groups 6-7)
	Formula       Attribute = "FORMULA"
	MonadicFormula Attribute = "MONADIC_FORMULA"
	IdentityRelation Attribute = "IDENTITY_RELATION"
	AndFunction   Attribute = "AND_FUNCTION"
	OrFunction    Attribute = "OR_FUNCTION"

	// Units and declarations (phase G groups 8-10)
	Unit              Attribute = "UNIT"
	Tertiary          Attribute = "TERTIARY"
	Secondary         Attribute = "SECONDARY"
	Primary           Attribute = "PRIMARY"
	Assignation       Attribute = "ASSIGNATION"
	RoutineText       Attribute = "ROUTINE_TEXT"
	OperatorPlan      Attribute = "OPERATOR_PLAN"
	ParameterPack     Attribute = "PARAMETER_PACK"
	GenericArgument   Attribute = "GENERIC_ARGUMENT"
	ArgumentList      Attribute = "ARGUMENT_LIST"
	DeclarationList   Attribute = "DECLARATION_LIST"
	ModeDeclaration   Attribute = "MODE_DECLARATION"
	PriorityDeclaration Attribute = "PRIORITY_DECLARATION"
	OperatorDeclaration Attribute = "OPERATOR_DECLARATION"
	IdentityDeclaration Attribute = "IDENTITY_DECLARATION"
	VariableDeclaration Attribute = "VARIABLE_DECLARATION"
	ProcedureDeclaration Attribute = "PROCEDURE_DECLARATION"

	// Format texts (phase G group 2)
	FormatText Attribute = "FORMAT_TEXT"
	Picture    Attribute = "PICTURE"
	Insertion  Attribute = "INSERTION"

	// Program framing
	Program    Attribute = "PROGRAM"
	CodeClause Attribute = "CODE_CLAUSE"

	// Coercion nodes inserted by phase L
	Dereferencing Attribute = "DEREFERENCING"
	Deproceduring Attribute = "DEPROCEDURING"
	Uniting       Attribute = "UNITING"
	Widening      Attribute = "WIDENING"
	Rowing        Attribute = "ROWING"
	Voiding       Attribute = "VOIDING"
	Proceduring   Attribute = "PROCEDURING"

	// Pseudo-attributes used as wildcards by the reducer (spec §4.G)
	Wildcard Attribute = "WILDCARD"
	Error    Attribute = "ERROR_NODE"
)

// Annotation distinguishes sub-kinds of a node that share an
// Attribute (spec §3: "annotation (SLICE vs TRIMMER, PROCEDURING vs
// JUMP)").
type Annotation string

const (
	NoAnnotation Annotation = ""
	TrimmerAnnotation Annotation = "TRIMMER"
	SubscriptAnnotation Annotation = "SUBSCRIPT"
	SliceAnnotation   Annotation = "SLICE"
	JumpAnnotation    Annotation = "JUMP"
	ProceduringAnnotation Annotation = "PROCEDURING"
)
