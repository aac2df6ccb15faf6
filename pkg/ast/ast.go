package ast

type NodeType string

const (
	NodeIdentifier             NodeType = "Identifier"
	NodeIntegerLiteral         NodeType = "IntegerLiteral"
	NodeFloatLiteral           NodeType = "FloatLiteral"
	NodeStringLiteral          NodeType = "StringLiteral"
	NodeBooleanLiteral         NodeType = "BooleanLiteral"
	NodeStringInterpolation    NodeType = "StringInterpolation"
	NodeArrayLiteral           NodeType = "ArrayLiteral"
	NodeUnaryExpression        NodeType = "UnaryExpression"
	NodeBinaryExpression       NodeType = "BinaryExpression"
	NodeAssignmentExpression   NodeType = "AssignmentExpression"
	NodeFunctionCall           NodeType = "FunctionCall"
	NodeMemberAccessExpression NodeType = "MemberAccessExpression"
	NodeIndexExpression        NodeType = "IndexExpression"
	NodeLambdaExpression       NodeType = "LambdaExpression"
	NodeVariableDeclaration    NodeType = "VariableDeclaration"
	NodeFunctionParameter      NodeType = "FunctionParameter"
	NodeFunctionDeclaration    NodeType = "FunctionDeclaration"
	NodeConstructorDeclaration NodeType = "ConstructorDeclaration"
	NodeClassDeclaration       NodeType = "ClassDeclaration"
	NodeBlockStatement         NodeType = "BlockStatement"
	NodeIfStatement            NodeType = "IfStatement"
	NodeWhileStatement         NodeType = "WhileStatement"
	NodeForStatement           NodeType = "ForStatement"
	NodeWhenBranch             NodeType = "WhenBranch"
	NodeWhenStatement          NodeType = "WhenStatement"
	NodeTryStatement           NodeType = "TryStatement"
	NodeReturnStatement        NodeType = "ReturnStatement"
	NodeBreakStatement         NodeType = "BreakStatement"
	NodeContinueStatement      NodeType = "ContinueStatement"
	NodeProgram                NodeType = "Program"
)

// NodeID addresses a node inside its Program's arena. The zero value marks a
// node that has not been adopted by any program yet.
type NodeID int32

const NoNode NodeID = 0

// Position is a 1-based source location.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Node interface {
	NodeType() NodeType
	ID() NodeID
	Pos() Position
	SetPos(Position)
	setID(NodeID)
	isNode()
}

type nodeImpl struct {
	Type     NodeType `json:"type"`
	NodeId   NodeID   `json:"id"`
	Position Position `json:"position"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n *nodeImpl) NodeType() NodeType  { return n.Type }
func (n *nodeImpl) ID() NodeID          { return n.NodeId }
func (n *nodeImpl) Pos() Position       { return n.Position }
func (n *nodeImpl) setID(id NodeID)     { n.NodeId = id }
func (n *nodeImpl) SetPos(pos Position) { n.Position = pos }
func (*nodeImpl) isNode()               {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Literal interface {
	Expression
	literalNode()
}

type literalMarker struct{}

func (literalMarker) literalNode() {}

// Identifier

type Identifier struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals

type IntegerLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value int64 `json:"value"`
	// Long is set for literals with an L suffix or outside the Int range.
	Long bool `json:"long,omitempty"`
}

func NewIntegerLiteral(value int64, long bool) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value, Long: long}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value float64 `json:"value"`
}

func NewFloatLiteral(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker
	literalMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type StringInterpolation struct {
	nodeImpl
	expressionMarker
	statementMarker

	Parts []Expression `json:"parts"`
}

func NewStringInterpolation(parts []Expression) *StringInterpolation {
	return &StringInterpolation{nodeImpl: newNodeImpl(NodeStringInterpolation), Parts: parts}
}

type ArrayLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Elements []Expression `json:"elements"`
}

func NewArrayLiteral(elements []Expression) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral), Elements: elements}
}

// Expressions

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Operand  Expression `json:"operand"`
}

func NewUnaryExpression(operator string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

// AssignmentExpression stores into an identifier or a member-access target.
type AssignmentExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Target Expression `json:"target"`
	Value  Expression `json:"value"`
}

func NewAssignmentExpression(target, value Expression) *AssignmentExpression {
	return &AssignmentExpression{nodeImpl: newNodeImpl(NodeAssignmentExpression), Target: target, Value: value}
}

type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(callee Expression, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Arguments: args}
}

type MemberAccessExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object Expression `json:"object"`
	Member string     `json:"member"`
}

func NewMemberAccessExpression(object Expression, member string) *MemberAccessExpression {
	return &MemberAccessExpression{nodeImpl: newNodeImpl(NodeMemberAccessExpression), Object: object, Member: member}
}

type IndexExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Object Expression `json:"object"`
	Index  Expression `json:"index"`
}

func NewIndexExpression(object, index Expression) *IndexExpression {
	return &IndexExpression{nodeImpl: newNodeImpl(NodeIndexExpression), Object: object, Index: index}
}

type LambdaExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Params []*FunctionParameter `json:"params"`
	Body   *BlockStatement      `json:"body"`
}

func NewLambdaExpression(params []*FunctionParameter, body *BlockStatement) *LambdaExpression {
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Params: params, Body: body}
}

// Types

// TypeRef is a written (or inferred) type such as Int or Array<String>.
type TypeRef struct {
	Name    string   `json:"name"`
	Element *TypeRef `json:"element,omitempty"`
	// Inferred marks annotations written back by the type checker.
	Inferred bool `json:"inferred,omitempty"`
}

func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	if t.Element != nil {
		return t.Name + "<" + t.Element.String() + ">"
	}
	return t.Name
}

// Declarations

type VariableDeclaration struct {
	nodeImpl
	statementMarker

	Name           string     `json:"name"`
	Mutable        bool       `json:"mutable"`
	TypeAnnotation *TypeRef   `json:"typeAnnotation,omitempty"`
	Initializer    Expression `json:"initializer,omitempty"`
}

func NewVariableDeclaration(name string, mutable bool, annotation *TypeRef, init Expression) *VariableDeclaration {
	return &VariableDeclaration{
		nodeImpl:       newNodeImpl(NodeVariableDeclaration),
		Name:           name,
		Mutable:        mutable,
		TypeAnnotation: annotation,
		Initializer:    init,
	}
}

type FunctionParameter struct {
	nodeImpl

	Name string   `json:"name"`
	Type *TypeRef `json:"paramType,omitempty"`
}

func NewFunctionParameter(name string, paramType *TypeRef) *FunctionParameter {
	return &FunctionParameter{nodeImpl: newNodeImpl(NodeFunctionParameter), Name: name, Type: paramType}
}

type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	Name       string               `json:"name"`
	Params     []*FunctionParameter `json:"params"`
	ReturnType *TypeRef             `json:"returnType,omitempty"`
	Body       *BlockStatement      `json:"body"`
}

func NewFunctionDeclaration(name string, params []*FunctionParameter, returnType *TypeRef, body *BlockStatement) *FunctionDeclaration {
	return &FunctionDeclaration{
		nodeImpl:   newNodeImpl(NodeFunctionDeclaration),
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
	}
}

type ConstructorDeclaration struct {
	nodeImpl
	statementMarker

	Params []*FunctionParameter `json:"params"`
	Body   *BlockStatement      `json:"body"`
}

func NewConstructorDeclaration(params []*FunctionParameter, body *BlockStatement) *ConstructorDeclaration {
	return &ConstructorDeclaration{nodeImpl: newNodeImpl(NodeConstructorDeclaration), Params: params, Body: body}
}

type ClassDeclaration struct {
	nodeImpl
	statementMarker

	Name         string                    `json:"name"`
	SuperClass   string                    `json:"superClass,omitempty"`
	Fields       []*VariableDeclaration    `json:"fields"`
	Constructors []*ConstructorDeclaration `json:"constructors"`
	Methods      []*FunctionDeclaration    `json:"methods"`
	// Initializers are init { } blocks, run in order after the constructor body.
	Initializers []*BlockStatement `json:"initializers,omitempty"`
}

func NewClassDeclaration(name, superClass string, fields []*VariableDeclaration, ctors []*ConstructorDeclaration, methods []*FunctionDeclaration) *ClassDeclaration {
	return &ClassDeclaration{
		nodeImpl:     newNodeImpl(NodeClassDeclaration),
		Name:         name,
		SuperClass:   superClass,
		Fields:       fields,
		Constructors: ctors,
		Methods:      methods,
	}
}

// Statements

type BlockStatement struct {
	nodeImpl
	statementMarker

	Statements []Statement `json:"statements"`
}

func NewBlockStatement(stmts []Statement) *BlockStatement {
	return &BlockStatement{nodeImpl: newNodeImpl(NodeBlockStatement), Statements: stmts}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Then      Statement  `json:"then"`
	Else      Statement  `json:"else,omitempty"`
}

func NewIfStatement(cond Expression, then, els Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: cond, Then: then, Else: els}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      Statement  `json:"body"`
}

func NewWhileStatement(cond Expression, body Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: cond, Body: body}
}

type ForStatement struct {
	nodeImpl
	statementMarker

	Variable string     `json:"variable"`
	Iterable Expression `json:"iterable"`
	Body     Statement  `json:"body"`
}

func NewForStatement(variable string, iterable Expression, body Statement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Variable: variable, Iterable: iterable, Body: body}
}

type WhenBranch struct {
	nodeImpl

	Patterns []Expression `json:"patterns"`
	Body     Statement    `json:"body"`
}

func NewWhenBranch(patterns []Expression, body Statement) *WhenBranch {
	return &WhenBranch{nodeImpl: newNodeImpl(NodeWhenBranch), Patterns: patterns, Body: body}
}

type WhenStatement struct {
	nodeImpl
	statementMarker

	Subject  Expression    `json:"subject"`
	Branches []*WhenBranch `json:"branches"`
	Else     Statement     `json:"else,omitempty"`
}

func NewWhenStatement(subject Expression, branches []*WhenBranch, els Statement) *WhenStatement {
	return &WhenStatement{nodeImpl: newNodeImpl(NodeWhenStatement), Subject: subject, Branches: branches, Else: els}
}

type TryStatement struct {
	nodeImpl
	statementMarker

	Body     *BlockStatement `json:"body"`
	CatchVar string          `json:"catchVar,omitempty"`
	Catch    *BlockStatement `json:"catch,omitempty"`
	Finally  *BlockStatement `json:"finally,omitempty"`
}

func NewTryStatement(body *BlockStatement, catchVar string, catch, finally *BlockStatement) *TryStatement {
	return &TryStatement{nodeImpl: newNodeImpl(NodeTryStatement), Body: body, CatchVar: catchVar, Catch: catch, Finally: finally}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Value Expression `json:"value,omitempty"`
}

func NewReturnStatement(value Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Value: value}
}

type BreakStatement struct {
	nodeImpl
	statementMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type ContinueStatement struct {
	nodeImpl
	statementMarker
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}
