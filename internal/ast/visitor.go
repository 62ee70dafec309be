package ast

// Visitor dispatches over every concrete node type. The pretty printers are
// the main implementors; semantic passes use type switches instead.
type Visitor interface {
	VisitModule(m *Module)
	VisitImportDeclaration(id *ImportDeclaration)
	VisitVarDeclaration(vd *VarDeclaration)
	VisitFunctionDeclaration(fd *FunctionDeclaration)
	VisitStructDeclaration(sd *StructDeclaration)
	VisitTraitDeclaration(td *TraitDeclaration)
	VisitImplDeclaration(id *ImplDeclaration)
	VisitMacroDeclaration(md *MacroDeclaration)
	VisitAssignStatement(as *AssignStatement)
	VisitExpressionStatement(es *ExpressionStatement)
	VisitReturnStatement(rs *ReturnStatement)
	VisitWhileStatement(ws *WhileStatement)
	VisitBreakStatement(bs *BreakStatement)
	VisitContinueStatement(cs *ContinueStatement)

	VisitIdentifier(i *Identifier)
	VisitIntegerLiteral(il *IntegerLiteral)
	VisitFloatLiteral(fl *FloatLiteral)
	VisitStringLiteral(sl *StringLiteral)
	VisitBooleanLiteral(bl *BooleanLiteral)
	VisitNilLiteral(nl *NilLiteral)
	VisitPrefixExpression(pe *PrefixExpression)
	VisitInfixExpression(ie *InfixExpression)
	VisitPipeExpression(pe *PipeExpression)
	VisitCallExpression(ce *CallExpression)
	VisitMemberExpression(me *MemberExpression)
	VisitStructLiteral(sl *StructLiteral)
	VisitIfExpression(ie *IfExpression)
	VisitMatchExpression(me *MatchExpression)
	VisitBlockExpression(be *BlockExpression)
	VisitFunctionLiteral(fl *FunctionLiteral)

	VisitWildcardPattern(wp *WildcardPattern)
	VisitIdentifierPattern(ip *IdentifierPattern)
	VisitLiteralPattern(lp *LiteralPattern)
	VisitStructPattern(sp *StructPattern)
	VisitOrPattern(op *OrPattern)
}
