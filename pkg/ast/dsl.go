package ast

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value, false)
}

func Long(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value, true)
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Arr(elements ...Expression) *ArrayLiteral {
	return NewArrayLiteral(elements)
}

func Interp(parts ...Expression) *StringInterpolation {
	return NewStringInterpolation(parts)
}

// Type helpers.

func Ty(name string) *TypeRef {
	return &TypeRef{Name: name}
}

func ArrTy(element *TypeRef) *TypeRef {
	return &TypeRef{Name: "Array", Element: element}
}

// Expression helpers.

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Un(op string, operand Expression) *UnaryExpression {
	return NewUnaryExpression(op, operand)
}

func Assign(target, value Expression) *AssignmentExpression {
	return NewAssignmentExpression(target, value)
}

func Call(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(ID(name), args)
}

func CallExpr(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(callee, args)
}

func Member(object Expression, member string) *MemberAccessExpression {
	return NewMemberAccessExpression(object, member)
}

func MethodCall(object Expression, method string, args ...Expression) *FunctionCall {
	return NewFunctionCall(Member(object, method), args)
}

func Index(object, index Expression) *IndexExpression {
	return NewIndexExpression(object, index)
}

func Lam(params []*FunctionParameter, body ...Statement) *LambdaExpression {
	return NewLambdaExpression(params, Block(body...))
}

// Declaration helpers.

func Val(name string, init Expression) *VariableDeclaration {
	return NewVariableDeclaration(name, false, nil, init)
}

func Var(name string, init Expression) *VariableDeclaration {
	return NewVariableDeclaration(name, true, nil, init)
}

func ValTyped(name string, annotation *TypeRef, init Expression) *VariableDeclaration {
	return NewVariableDeclaration(name, false, annotation, init)
}

func Param(name string, paramType *TypeRef) *FunctionParameter {
	return NewFunctionParameter(name, paramType)
}

func Params(names ...string) []*FunctionParameter {
	out := make([]*FunctionParameter, len(names))
	for i, name := range names {
		out[i] = NewFunctionParameter(name, nil)
	}
	return out
}

func Fn(name string, params []*FunctionParameter, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, nil, Block(body...))
}

func FnTyped(name string, params []*FunctionParameter, returnType *TypeRef, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, returnType, Block(body...))
}

func Ctor(params []*FunctionParameter, body ...Statement) *ConstructorDeclaration {
	return NewConstructorDeclaration(params, Block(body...))
}

// Statement helpers.

func Block(stmts ...Statement) *BlockStatement {
	return NewBlockStatement(stmts)
}

func If(cond Expression, then Statement, els Statement) *IfStatement {
	return NewIfStatement(cond, then, els)
}

func While(cond Expression, body ...Statement) *WhileStatement {
	return NewWhileStatement(cond, Block(body...))
}

func For(variable string, iterable Expression, body ...Statement) *ForStatement {
	return NewForStatement(variable, iterable, Block(body...))
}

func Branch(body Statement, patterns ...Expression) *WhenBranch {
	return NewWhenBranch(patterns, body)
}

func When(subject Expression, els Statement, branches ...*WhenBranch) *WhenStatement {
	return NewWhenStatement(subject, branches, els)
}

func Try(body *BlockStatement, catchVar string, catch, finally *BlockStatement) *TryStatement {
	return NewTryStatement(body, catchVar, catch, finally)
}

func Ret(value Expression) *ReturnStatement {
	return NewReturnStatement(value)
}

func Prog(stmts ...Statement) *Program {
	return NewProgram(stmts)
}
